// Package imposition maps a linear page sequence onto physical sheets.
//
// Signature mode lays four pages on each sheet side in a 2x2 grid. Pages are
// paired from both ends of the list and the pair order flips on every other
// sheet, so once the sheets are printed, cut and stacked the pages read in
// sequence. Spread mode puts two facing pages side by side for e-books.
//
// Planning is pure: it only needs the page count and the sheet geometry.
// Decoding, drawing and saving happen in the raster package.
package imposition

import (
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/imposer/internal/geometry"
)

// Mode selects the imposition scheme
type Mode string

const (
	// Signature is 4-up print imposition with duplicated covers
	Signature Mode = "signature"
	// Spread is 2-up e-book pages with separate covers
	Spread Mode = "spread"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Signature, Spread:
		return m, nil
	default:
		return "", fmt.Errorf("unknown imposition mode %q (supported: signature, spread)", s)
	}
}

// MinPages is the smallest manifest the mode can impose
func (m Mode) MinPages() int {
	if m == Spread {
		return 2
	}
	return 4
}

// Class is derived from the sheet index alone
type Class struct {
	Cover bool `yaml:"cover"`
	Odd   bool `yaml:"odd"`
}

// Classify reports whether sheet i is a cover and whether it is odd
func Classify(i int) Class {
	return Class{Cover: i <= 1, Odd: i%2 == 1}
}

// Role is what a finished sheet is used for when grouping binders
type Role string

const (
	RoleCover       Role = "cover"
	RolePage        Role = "page"
	RoleFrontCover  Role = "front_cover"
	RoleBackCover   Role = "back_cover"
	RoleCoverSpread Role = "cover_spread"
	RoleSpread      Role = "spread"
)

// Slot is the top-left pixel position of one page on a sheet
type Slot struct {
	Page int `yaml:"page"`
	X    int `yaml:"x"`
	Y    int `yaml:"y"`
}

// Placement describes one sheet. It is recomputed for every sheet and never
// shared between sheets.
type Placement struct {
	Sheet           int     `yaml:"sheet"`
	Name            string  `yaml:"name"`
	Role            Role    `yaml:"role"`
	Class           Class   `yaml:"class"`
	Pages           []int   `yaml:"pages"`
	Slots           []Slot  `yaml:"slots"`
	GutterPx        float64 `yaml:"gutter_px"`
	AppliedGutterPx float64 `yaml:"applied_gutter_px"`
	OffsetX         int     `yaml:"offset_x"`
	WidthPx         int     `yaml:"width_px"`
	HeightPx        int     `yaml:"height_px"`
	Marks           bool    `yaml:"marks"`
}

// Plan is the full imposition of one manifest
type Plan struct {
	Mode       Mode            `yaml:"mode"`
	Params     geometry.Params `yaml:"geometry"`
	PageCount  int             `yaml:"page_count"`
	Placements []Placement     `yaml:"sheets"`
	Warnings   []error         `yaml:"-"`
}

// PageCountWarning is raised when the page count does not fill whole
// signatures. Planning continues and the last sheet repeats or omits pages.
type PageCountWarning struct {
	Count    int
	Multiple int
}

func (w *PageCountWarning) Error() string {
	return fmt.Sprintf("number of pages (%d) is not a multiple of %d", w.Count, w.Multiple)
}

// Options are the per-run planning policies
type Options struct {
	Mode Mode
	// Guides enables registration marks on even signature sheets
	Guides bool
	// HalveFrontCoverGutter centers the outer cover, which has no facing page
	HalveFrontCoverGutter bool
}

// DefaultOptions is the print policy
var DefaultOptions = Options{Mode: Signature, Guides: true, HalveFrontCoverGutter: true}

// Planner computes placements for one manifest's geometry
type Planner struct {
	params geometry.Params
	opts   Options
}

// NewPlanner creates a planner for the given geometry
func NewPlanner(params geometry.Params, opts Options) *Planner {
	if opts.Mode == "" {
		opts.Mode = Signature
	}
	return &Planner{params: params, opts: opts}
}

// SheetCount returns how many sheets the mode needs for pageCount pages
func SheetCount(mode Mode, pageCount int) int {
	if pageCount <= 0 {
		return 0
	}
	if mode == Spread {
		inner := pageCount - 2
		if inner < 0 {
			inner = 0
		}
		return 3 + (inner+1)/2
	}
	return (pageCount + 3) / 4
}

// SignatureIndices returns the four pages of sheet i in grid order
// top-left, top-right, bottom-left, bottom-right. Each row pairs a page with
// its mirror maxIndex-page, and odd sheets swap the pair order.
func SignatureIndices(i, maxIndex int) [4]int {
	base := i*2 - i%2
	if i%2 == 1 {
		return [4]int{base, maxIndex - base, base + 2, maxIndex - (base + 2)}
	}
	return [4]int{maxIndex - base, base, maxIndex - (base + 2), base + 2}
}

// Plan imposes pageCount pages
func (p *Planner) Plan(pageCount int) (*Plan, error) {
	if pageCount < p.opts.Mode.MinPages() {
		return nil, fmt.Errorf("%s imposition needs at least %d pages, got %d", p.opts.Mode, p.opts.Mode.MinPages(), pageCount)
	}

	plan := &Plan{
		Mode:      p.opts.Mode,
		Params:    p.params,
		PageCount: pageCount,
	}

	switch p.opts.Mode {
	case Signature:
		if pageCount%4 != 0 {
			plan.Warnings = append(plan.Warnings, &PageCountWarning{Count: pageCount, Multiple: 4})
		} else if pageCount%8 != 0 {
			plan.Warnings = append(plan.Warnings, &PageCountWarning{Count: pageCount, Multiple: 8})
		}
		sheetCount := SheetCount(Signature, pageCount)
		for i := 0; i < sheetCount; i++ {
			plan.Placements = append(plan.Placements, p.PlaceSignature(i, sheetCount, pageCount-1))
		}
	case Spread:
		if pageCount%2 != 0 {
			plan.Warnings = append(plan.Warnings, &PageCountWarning{Count: pageCount, Multiple: 2})
		}
		plan.Placements = p.spreads(pageCount)
	default:
		return nil, fmt.Errorf("unknown imposition mode %q", p.opts.Mode)
	}

	for _, pl := range plan.Placements {
		for _, s := range pl.Slots {
			if s.Page < 0 || s.Page >= pageCount {
				return nil, fmt.Errorf("sheet %d: page index %d outside [0, %d)", pl.Sheet, s.Page, pageCount)
			}
		}
	}
	return plan, nil
}

// PlaceSignature computes sheet i of a signature imposition
func (p *Planner) PlaceSignature(i, sheetCount, maxIndex int) Placement {
	pageW, pageH := p.params.PageW, p.params.PageH
	sheet := p.params.Sheet
	class := Classify(i)

	gutter := p.params.Gutters.Px(i, sheetCount, class.Cover, sheet.PxPerInch)

	// Odd sheets keep the gutter on the left so bound gutters line up.
	offsetX := 0
	if class.Odd {
		offsetX = int(math.Round(float64(sheet.WidthPx-pageW*2) - gutter))
	}

	applied := gutter
	if class.Cover && i < 1 && p.opts.HalveFrontCoverGutter {
		offsetX = int(math.Round(gutter * 0.25))
		applied = math.Round(gutter * 0.5)
	}

	indices := SignatureIndices(i, maxIndex)

	role, prefix := RolePage, "page"
	if class.Cover {
		role, prefix = RoleCover, "cover"
	}

	return Placement{
		Sheet:           i,
		Name:            fmt.Sprintf("%s_%03d", prefix, i),
		Role:            role,
		Class:           class,
		Pages:           indices[:],
		Slots:           walkGrid(indices[:], offsetX, applied, pageW, pageH),
		GutterPx:        gutter,
		AppliedGutterPx: applied,
		OffsetX:         offsetX,
		WidthPx:         sheet.WidthPx,
		HeightPx:        sheet.HeightPx,
		Marks:           p.opts.Guides && !class.Odd,
	}
}

// walkGrid places pages left to right, top to bottom, two per row
func walkGrid(indices []int, offsetX int, gutter float64, pageW, pageH int) []Slot {
	slots := make([]Slot, 0, len(indices))
	x := float64(offsetX)
	y := 0
	for _, pi := range indices {
		slots = append(slots, Slot{Page: pi, X: int(x), Y: y})

		x += float64(pageW) + gutter
		if x >= float64(pageW*2)+gutter {
			x = float64(offsetX)
			y += pageH
		}
		x = math.Round(x)
	}
	return slots
}

// spreads lays out e-book pages: a combined back+front cover spread, the
// single front cover, facing pairs of the inner pages and the back cover.
func (p *Planner) spreads(pageCount int) []Placement {
	pageW, pageH := p.params.PageW, p.params.PageH
	first, last := 0, pageCount-1

	row := func(sheet int, name string, role Role, pages ...int) Placement {
		slots := make([]Slot, len(pages))
		for i, pi := range pages {
			slots[i] = Slot{Page: pi, X: i * pageW}
		}
		return Placement{
			Sheet:    sheet,
			Name:     name,
			Role:     role,
			Class:    Class{Cover: role != RoleSpread},
			Pages:    pages,
			Slots:    slots,
			WidthPx:  pageW * len(pages),
			HeightPx: pageH,
		}
	}

	placements := []Placement{
		row(0, "spread_covers", RoleCoverSpread, last, first),
		row(1, "cover_front", RoleFrontCover, first),
	}

	sheet := 2
	for i, n := first+1, 0; i < last; i, n = i+2, n+1 {
		pages := []int{i}
		if i+1 < last {
			pages = append(pages, i+1)
		}
		placements = append(placements, row(sheet, fmt.Sprintf("spread_%03d", n), RoleSpread, pages...))
		sheet++
	}

	placements = append(placements, row(sheet, "cover_back", RoleBackCover, last))
	return placements
}
