package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/imposer/internal/binder"
	"github.com/lehigh-university-libraries/imposer/internal/geometry"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
)

func TestSave(t *testing.T) {
	params, err := geometry.NewParams(1000, 1500, geometry.Letter, geometry.DefaultGutters)
	if err != nil {
		t.Fatalf("NewParams failed: %v", err)
	}
	plan, err := imposition.NewPlanner(params, imposition.DefaultOptions).Plan(12)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	r := New("red", "manifest/red.csv", imposition.Signature, "png", true)
	if _, err := uuid.Parse(r.Config.RunID); err != nil {
		t.Errorf("Expected a UUID run id, got %q", r.Config.RunID)
	}

	r.AddPlan(plan)
	r.SetFile(2, "print/red/page_002.png")
	r.AddBinders([]binder.Result{
		{Group: "binder", Path: "print/red/binder.pdf", Pages: 1},
		{Group: "binder_covers", Path: "print/red/binder_covers.pdf", Pages: 2, Err: errors.New("boom")},
	})

	path := filepath.Join(t.TempDir(), FileName)
	if err := r.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	var got Report
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Report is not valid YAML: %v", err)
	}

	if got.Config.Manifest != "red" || got.Config.Pages != 12 {
		t.Errorf("Unexpected config %+v", got.Config)
	}
	if got.Geometry == nil || got.Geometry.Sheet.WidthPx != 2318 {
		t.Errorf("Expected geometry with 2318px sheets, got %+v", got.Geometry)
	}
	if len(got.Sheets) != 3 {
		t.Fatalf("Expected 3 sheets, got %d", len(got.Sheets))
	}
	if got.Sheets[2].File != "print/red/page_002.png" || got.Sheets[0].File != "" {
		t.Errorf("Unexpected sheet files %q, %q", got.Sheets[0].File, got.Sheets[2].File)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("Expected the page count warning, got %v", got.Warnings)
	}
	if len(got.Binders) != 2 || got.Binders[1].Error != "boom" {
		t.Errorf("Unexpected binders %+v", got.Binders)
	}
}
