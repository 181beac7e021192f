package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/manifest"
	"github.com/lehigh-university-libraries/imposer/internal/marks"
)

// MarkColor is the registration guide color
var MarkColor = color.RGBA{R: 128, A: 255}

// SizeMismatch is a page whose pixel size differs from the manifest's first
// page. The page is placed anyway at its own size.
type SizeMismatch struct {
	Path      string
	Width     int
	Height    int
	ExpectedW int
	ExpectedH int
}

func (w *SizeMismatch) Error() string {
	return fmt.Sprintf("size mismatch for %s (%d x %d), expected (%d x %d)", w.Path, w.Width, w.Height, w.ExpectedW, w.ExpectedH)
}

// Compose draws the pages of one placement onto a white sheet. Pages are
// copied unscaled at their slot positions; anything outside the sheet is
// clipped.
func Compose(ctx context.Context, p imposition.Placement, pages manifest.PageList, pageW, pageH int) (*image.RGBA, []*SizeMismatch, error) {
	if p.WidthPx <= 0 || p.HeightPx <= 0 {
		return nil, nil, fmt.Errorf("sheet %s has no area (%dx%d)", p.Name, p.WidthPx, p.HeightPx)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, p.WidthPx, p.HeightPx))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	var mismatches []*SizeMismatch
	for _, slot := range p.Slots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if slot.Page < 0 || slot.Page >= len(pages) {
			return nil, nil, fmt.Errorf("sheet %s: page index %d out of range", p.Name, slot.Page)
		}
		page := pages[slot.Page]

		img, err := imaging.Open(page.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open page %s: %w", page.Path, err)
		}

		b := img.Bounds()
		if b.Dx() != pageW || b.Dy() != pageH {
			mismatches = append(mismatches, &SizeMismatch{
				Path:      page.Path,
				Width:     b.Dx(),
				Height:    b.Dy(),
				ExpectedW: pageW,
				ExpectedH: pageH,
			})
		}

		draw.Copy(canvas, image.Pt(slot.X, slot.Y), img, b, draw.Over, nil)
	}

	return canvas, mismatches, nil
}

// DrawMarks strokes registration guides onto the sheet in place
func DrawMarks(canvas *image.RGBA, segments []marks.Segment) {
	if len(segments) == 0 {
		return
	}
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(MarkColor)
	dc.SetLineWidth(1)
	for _, s := range segments {
		dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
	}
	dc.Stroke()
}
