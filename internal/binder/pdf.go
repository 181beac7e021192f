package binder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jung-kurt/gofpdf"
	pdflib "github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/lehigh-university-libraries/imposer/internal/raster"
)

// PDFMerger concatenates single-page PDF sheets with pdfcpu
type PDFMerger struct{}

func (m *PDFMerger) Merge(ctx context.Context, paths []string, out string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no sheets to merge")
	}

	readers := make([]io.ReadSeeker, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		readers = append(readers, bytes.NewReader(data))
	}

	var buf bytes.Buffer
	if len(readers) == 1 {
		if _, err := io.Copy(&buf, readers[0]); err != nil {
			return err
		}
	} else if err := pdfapi.MergeRaw(readers, &buf, false, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu merge: %w", err)
	}

	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	verifyPageCount(out, len(paths))
	return nil
}

// verifyPageCount re-opens a written binder and logs when its page count
// differs from the number of sheets. It never fails the merge.
func verifyPageCount(path string, expected int) {
	n, err := PageCount(path)
	if err != nil {
		slog.Warn("Could not verify binder page count", "path", path, "error", err)
		return
	}
	if n != expected {
		slog.Warn("Binder page count differs from sheet count", "path", path, "pages", n, "sheets", expected)
		return
	}
	slog.Debug("Verified binder", "path", path, "pages", n)
}

// PageCount returns the number of pages in a PDF file
func PageCount(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// ImageBinder writes PNG or JPEG sheets as the pages of one PDF. Each page
// is sized from the sheet's pixel size and stored resolution.
type ImageBinder struct{}

func (b *ImageBinder) Merge(ctx context.Context, paths []string, out string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no sheets to merge")
	}

	type page struct {
		path string
		w, h float64
	}
	pages := make([]page, 0, len(paths))
	for _, p := range paths {
		info, err := raster.Info(p)
		if err != nil {
			return err
		}
		res := info.Resolution
		if !info.HasResolution {
			res = raster.DefaultResolution
		}
		w, h := raster.PointSize(info.Width, info.Height, res)
		pages = append(pages, page{path: p, w: w, h: h})
	}

	pdf := raster.NewPDF(pages[0].w, pages[0].h)
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pg.w, Ht: pg.h})
		pdf.ImageOptions(pg.path, 0, 0, pg.w, pg.h, false, gofpdf.ImageOptions{}, 0, "")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to add %s: %w", pg.path, err)
		}
	}

	if err := pdf.OutputFileAndClose(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	verifyPageCount(out, len(paths))
	return nil
}
