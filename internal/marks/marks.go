// Package marks computes printer registration guides for imposed sheets.
package marks

import "math"

// Segment is a straight guide line in sheet pixels
type Segment struct {
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
	X2 float64 `yaml:"x2"`
	Y2 float64 `yaml:"y2"`
}

// Style sets where guides start and end, in inches from the sheet edge.
// A guide runs from MarginIn to ReachIn.
type Style struct {
	MarginIn float64
	ReachIn  float64
}

// Print is the guide convention for the 4-up print run: guides run from
// 3/8in to 1/2in off the edges.
var Print = Style{MarginIn: 0.375, ReachIn: 0.5}

// For returns the four guides of an even signature sheet: two verticals at
// the right-hand gutter, top and bottom, and two horizontals on the center
// seam, left and right.
func For(sheetH, pageW, pageH int, gutterPx, pxPerInch float64, s Style) []Segment {
	margin := pxPerInch * s.MarginIn
	reach := pxPerInch * s.ReachIn
	x := math.Round(float64(pageW*2) + gutterPx + 1)
	h := float64(sheetH)
	seam := float64(pageH)

	return []Segment{
		{X1: x, Y1: margin, X2: x, Y2: reach},
		{X1: x, Y1: h - margin, X2: x, Y2: h - reach},
		{X1: margin, Y1: seam, X2: reach, Y2: seam},
		{X1: x, Y1: seam, X2: x - reach + margin, Y2: seam},
	}
}
