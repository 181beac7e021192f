package pipeline

import (
	"context"
	"path/filepath"

	"github.com/lehigh-university-libraries/imposer/internal/geometry"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/manifest"
	"github.com/lehigh-university-libraries/imposer/internal/marks"
	"github.com/lehigh-university-libraries/imposer/internal/raster"
)

// RenderSheet composes one placement, overlays its guides and saves it as
// dir/<name><ext>. The sheet buffer does not outlive the call.
func RenderSheet(ctx context.Context, p imposition.Placement, pages manifest.PageList, params geometry.Params, res raster.Resolution, f raster.Format, dir string) (string, []*raster.SizeMismatch, error) {
	canvas, mismatches, err := raster.Compose(ctx, p, pages, params.PageW, params.PageH)
	if err != nil {
		return "", nil, err
	}

	if p.Marks {
		raster.DrawMarks(canvas, marks.For(p.HeightPx, params.PageW, params.PageH, p.GutterPx, params.Sheet.PxPerInch, marks.Print))
	}

	path := filepath.Join(dir, p.Name+f.Ext())
	if err := raster.Save(path, canvas, res, f); err != nil {
		return "", nil, err
	}
	return path, mismatches, nil
}
