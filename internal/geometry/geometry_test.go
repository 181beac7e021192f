package geometry

import (
	"math"
	"testing"
)

func TestSheetPixelSize(t *testing.T) {
	tests := []struct {
		name     string
		pageW    int
		pageH    int
		target   Target
		expected Sheet
	}{
		{
			name:     "narrow pages widen the sheet",
			pageW:    1000,
			pageH:    1500,
			target:   Letter,
			expected: Sheet{WidthPx: 2318, HeightPx: 3000, PxPerInch: 3000.0 / 11.0},
		},
		{
			name:     "wide pages heighten the sheet",
			pageW:    1500,
			pageH:    1000,
			target:   Letter,
			expected: Sheet{WidthPx: 3000, HeightPx: 3882, PxPerInch: 3000.0 / 8.5},
		},
		{
			name:     "matching ratio keeps the grid",
			pageW:    850,
			pageH:    1100,
			target:   Letter,
			expected: Sheet{WidthPx: 1700, HeightPx: 2200, PxPerInch: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SheetPixelSize(tt.pageW, tt.pageH, tt.target)
			if err != nil {
				t.Fatalf("SheetPixelSize failed: %v", err)
			}
			if got.WidthPx != tt.expected.WidthPx || got.HeightPx != tt.expected.HeightPx {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expected.WidthPx, tt.expected.HeightPx, got.WidthPx, got.HeightPx)
			}
			if math.Abs(got.PxPerInch-tt.expected.PxPerInch) > 1e-9 {
				t.Errorf("Expected %f px/in, got %f", tt.expected.PxPerInch, got.PxPerInch)
			}
		})
	}
}

func TestSheetPixelSizeRejectsInvalid(t *testing.T) {
	if _, err := SheetPixelSize(0, 100, Letter); err == nil {
		t.Error("Expected error for zero page width, got nil")
	}
	if _, err := SheetPixelSize(100, 100, Target{WidthIn: 8.5}); err == nil {
		t.Error("Expected error for zero target height, got nil")
	}
}

func TestGutterCovers(t *testing.T) {
	g := Gutters{CoverIn: 0.25, PageIn: 0.125, IncrementIn: 0.5}
	for _, i := range []int{0, 1} {
		if got := g.Px(i, 10, true, 100); got != 25 {
			t.Errorf("sheet %d: expected cover gutter 25, got %f", i, got)
		}
	}
}

func TestGutterMonotonic(t *testing.T) {
	g := Gutters{CoverIn: 0.25, PageIn: 0.125, IncrementIn: 0.0625}
	const sheetCount = 12
	const ppi = 100.0

	expected := map[int]float64{
		11: 12.5, 10: 12.5,
		9: 18.75, 8: 18.75,
		7: 25, 6: 25,
		5: 31.25, 4: 31.25,
		3: 37.5, 2: 37.5,
	}

	prev := -1.0
	for i := sheetCount - 1; i >= 2; i-- {
		got := g.Px(i, sheetCount, false, ppi)
		if math.Abs(got-expected[i]) > 1e-9 {
			t.Errorf("sheet %d: expected %f, got %f", i, expected[i], got)
		}
		if got < prev {
			t.Errorf("sheet %d: gutter %f smaller than later sheet %f", i, got, prev)
		}
		prev = got
	}
}

func TestNewParams(t *testing.T) {
	p, err := NewParams(1000, 1500, Letter, DefaultGutters)
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	if p.Sheet.WidthPx != 2318 {
		t.Errorf("Expected sheet width 2318, got %d", p.Sheet.WidthPx)
	}
	if got := p.Inches(11); math.Abs(got-3000) > 1e-9 {
		t.Errorf("Expected 11in to be 3000px, got %f", got)
	}

	if _, err := NewParams(1000, 1500, Letter, Gutters{PageIn: -1}); err == nil {
		t.Error("Expected error for negative gutter, got nil")
	}
}
