package marks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFor(t *testing.T) {
	got := For(3000, 1000, 1500, 34, 200, Print)

	want := []Segment{
		{X1: 2035, Y1: 75, X2: 2035, Y2: 100},
		{X1: 2035, Y1: 2925, X2: 2035, Y2: 2900},
		{X1: 75, Y1: 1500, X2: 100, Y2: 1500},
		{X1: 2035, Y1: 1500, X2: 2010, Y2: 1500},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestForMarksAreShort(t *testing.T) {
	const ppi = 300.0
	for _, s := range For(3300, 1200, 1650, 37.5, ppi, Print) {
		dx := s.X2 - s.X1
		dy := s.Y2 - s.Y1
		length := dx*dx + dy*dy
		expected := (ppi * (Print.ReachIn - Print.MarginIn)) * (ppi * (Print.ReachIn - Print.MarginIn))
		if length-expected > 1e-6 || expected-length > 1e-6 {
			t.Errorf("segment %+v: expected length %f", s, ppi*(Print.ReachIn-Print.MarginIn))
		}
	}
}
