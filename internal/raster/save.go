package raster

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
)

// Format is the file format of rendered sheets
type Format string

const (
	PDF  Format = "pdf"
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "pdf":
		return PDF, nil
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (supported: pdf, png, jpeg)", s)
	}
}

// Ext returns the file extension including the dot
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// JPEGQuality is used for JPEG sheets
const JPEGQuality = 95

// DefaultResolution is assumed for pages that store no density
var DefaultResolution = Resolution{X: 72, Y: 72}

// Encode writes img in the given raster format with res embedded
func Encode(img image.Image, res Resolution, f Format) ([]byte, error) {
	if !res.Valid() {
		res = DefaultResolution
	}

	var buf bytes.Buffer
	switch f {
	case PNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
		return withPHYs(buf.Bytes(), res)
	case JPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return withJFIF(buf.Bytes(), res)
	default:
		return nil, fmt.Errorf("format %s is not a raster format", f)
	}
}

// Save writes one sheet. PDF sheets get a single page whose physical size is
// the pixel size at res.
func Save(path string, img image.Image, res Resolution, f Format) error {
	if !res.Valid() {
		res = DefaultResolution
	}

	if f == PDF {
		return savePDF(path, img, res)
	}

	data, err := Encode(img, res, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PointSize converts a pixel size to PDF points at res
func PointSize(w, h int, res Resolution) (float64, float64) {
	return float64(w) * 72 / res.X, float64(h) * 72 / res.Y
}

func savePDF(path string, img image.Image, res Resolution) error {
	data, err := Encode(img, res, PNG)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := PointSize(b.Dx(), b.Dy(), res)

	pdf := NewPDF(w, h)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.AddPage()
	pdf.RegisterImageOptionsReader("sheet", opts, bytes.NewReader(data))
	pdf.ImageOptions("sheet", 0, 0, w, h, false, opts, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF %s: %w", path, err)
	}
	return nil
}

// NewPDF creates a point-unit document without margins or page breaks
func NewPDF(w, h float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("imposer", true)
	return pdf
}
