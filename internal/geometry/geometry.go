// Package geometry converts between page pixels and physical sheet units.
package geometry

import (
	"fmt"
	"math"
)

// Target is the physical size of a printed sheet in inches
type Target struct {
	WidthIn  float64 `toml:"width" yaml:"width"`
	HeightIn float64 `toml:"height" yaml:"height"`
}

// Letter is the default target sheet
var Letter = Target{WidthIn: 8.5, HeightIn: 11.0}

// Gutters holds the blank binding margins in inches
type Gutters struct {
	CoverIn     float64 `toml:"cover" yaml:"cover"`
	PageIn      float64 `toml:"page" yaml:"page"`
	IncrementIn float64 `toml:"increment" yaml:"increment"`
}

// DefaultGutters matches the print defaults of the bindery scripts
var DefaultGutters = Gutters{CoverIn: 0.25, PageIn: 0.125, IncrementIn: 0}

// Sheet is the pixel size of one imposed sheet and the pixel density that
// maps it onto the target.
type Sheet struct {
	WidthPx   int     `yaml:"width_px"`
	HeightPx  int     `yaml:"height_px"`
	PxPerInch float64 `yaml:"px_per_inch"`
}

// Params is computed once per manifest from the first page and stays fixed
// for every sheet of that manifest.
type Params struct {
	PageW   int     `yaml:"page_w"`
	PageH   int     `yaml:"page_h"`
	Target  Target  `yaml:"target"`
	Gutters Gutters `yaml:"gutters"`
	Sheet   Sheet   `yaml:"sheet"`
}

// SheetPixelSize returns the canvas for a 2x2 grid of pageW x pageH pages,
// widened or heightened until it has the aspect ratio of t.
func SheetPixelSize(pageW, pageH int, t Target) (Sheet, error) {
	if pageW <= 0 || pageH <= 0 {
		return Sheet{}, fmt.Errorf("invalid page size %dx%d", pageW, pageH)
	}
	if t.WidthIn <= 0 || t.HeightIn <= 0 {
		return Sheet{}, fmt.Errorf("invalid target sheet %gx%g", t.WidthIn, t.HeightIn)
	}

	s := Sheet{WidthPx: pageW * 2, HeightPx: pageH * 2}
	imageRatio := float64(s.WidthPx) / float64(s.HeightPx)
	sheetRatio := t.WidthIn / t.HeightIn

	switch {
	case imageRatio < sheetRatio:
		s.PxPerInch = float64(s.HeightPx) / t.HeightIn
		s.WidthPx = int(math.Round(t.WidthIn * s.PxPerInch))
	case imageRatio > sheetRatio:
		s.PxPerInch = float64(s.WidthPx) / t.WidthIn
		s.HeightPx = int(math.Round(t.HeightIn * s.PxPerInch))
	default:
		s.PxPerInch = float64(s.HeightPx) / t.HeightIn
	}
	return s, nil
}

// Px returns the gutter of sheet i in pixels. Covers get the fixed cover
// gutter. Interior sheets grow by one increment every two sheets counting
// back from the last sheet, so the first interior sheets are the widest.
func (g Gutters) Px(i, sheetCount int, cover bool, pxPerInch float64) float64 {
	if cover {
		return g.CoverIn * pxPerInch
	}
	multiplier := (sheetCount - 1 - i) / 2
	if multiplier < 0 {
		multiplier = 0
	}
	return (g.PageIn + g.IncrementIn*float64(multiplier)) * pxPerInch
}

// Validate rejects negative gutters
func (g Gutters) Validate() error {
	if g.CoverIn < 0 || g.PageIn < 0 || g.IncrementIn < 0 {
		return fmt.Errorf("gutters must not be negative: cover=%g page=%g increment=%g", g.CoverIn, g.PageIn, g.IncrementIn)
	}
	return nil
}

// NewParams derives the sheet geometry for pages of the given size.
func NewParams(pageW, pageH int, t Target, g Gutters) (Params, error) {
	if err := g.Validate(); err != nil {
		return Params{}, err
	}
	sheet, err := SheetPixelSize(pageW, pageH, t)
	if err != nil {
		return Params{}, err
	}
	return Params{
		PageW:   pageW,
		PageH:   pageH,
		Target:  t,
		Gutters: g,
		Sheet:   sheet,
	}, nil
}

// Inches converts a length in inches to sheet pixels
func (p Params) Inches(in float64) float64 {
	return in * p.Sheet.PxPerInch
}
