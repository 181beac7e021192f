// Package report writes the per-manifest run report as YAML.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/imposer/internal/binder"
	"github.com/lehigh-university-libraries/imposer/internal/geometry"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
)

// FileName is the report written next to the sheets of a manifest
const FileName = "report.yaml"

// RunConfig represents the configuration section of the report
type RunConfig struct {
	RunID        string `yaml:"runid"`
	Manifest     string `yaml:"manifest"`
	ManifestPath string `yaml:"manifestpath"`
	Mode         string `yaml:"mode"`
	Format       string `yaml:"format"`
	Guides       bool   `yaml:"guides"`
	Pages        int    `yaml:"pages"`
	Timestamp    string `yaml:"timestamp"`
}

// Sheet is one rendered sheet
type Sheet struct {
	Index    int     `yaml:"index"`
	Name     string  `yaml:"name"`
	Role     string  `yaml:"role"`
	Pages    []int   `yaml:"pages,flow"`
	GutterPx float64 `yaml:"gutterpx"`
	OffsetX  int     `yaml:"offsetx"`
	File     string  `yaml:"file,omitempty"`
}

// Binder is one merged binder document
type Binder struct {
	Group string `yaml:"group"`
	Path  string `yaml:"path"`
	Pages int    `yaml:"pages"`
	Error string `yaml:"error,omitempty"`
}

// Report represents the complete record of one manifest's run
type Report struct {
	Config   RunConfig        `yaml:"config"`
	Geometry *geometry.Params `yaml:"geometry,omitempty"`
	Sheets   []Sheet          `yaml:"sheets"`
	Binders  []Binder         `yaml:"binders,omitempty"`
	Warnings []string         `yaml:"warnings,omitempty"`
	Errors   []string         `yaml:"errors,omitempty"`
}

// New starts a report with a fresh run id
func New(manifest, manifestPath string, mode imposition.Mode, format string, guides bool) *Report {
	return &Report{
		Config: RunConfig{
			RunID:        uuid.NewString(),
			Manifest:     manifest,
			ManifestPath: manifestPath,
			Mode:         string(mode),
			Format:       format,
			Guides:       guides,
			Timestamp:    time.Now().Format("2006-01-02_15-04-05"),
		},
	}
}

// AddPlan records the geometry and every placement of plan
func (r *Report) AddPlan(plan *imposition.Plan) {
	params := plan.Params
	r.Geometry = &params
	r.Config.Pages = plan.PageCount
	r.Sheets = make([]Sheet, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		r.Sheets = append(r.Sheets, Sheet{
			Index:    p.Sheet,
			Name:     p.Name,
			Role:     string(p.Role),
			Pages:    p.Pages,
			GutterPx: p.GutterPx,
			OffsetX:  p.OffsetX,
		})
	}
	for _, w := range plan.Warnings {
		r.Warn(w)
	}
}

// SetFile records where sheet index was written
func (r *Report) SetFile(index int, path string) {
	for i := range r.Sheets {
		if r.Sheets[i].Index == index {
			r.Sheets[i].File = path
			return
		}
	}
}

// AddBinders records merge results
func (r *Report) AddBinders(results []binder.Result) {
	for _, res := range results {
		b := Binder{Group: res.Group, Path: res.Path, Pages: res.Pages}
		if res.Err != nil {
			b.Error = res.Err.Error()
		}
		r.Binders = append(r.Binders, b)
	}
}

// Warn records a recoverable problem
func (r *Report) Warn(err error) {
	r.Warnings = append(r.Warnings, err.Error())
}

// Fail records an error
func (r *Report) Fail(err error) {
	r.Errors = append(r.Errors, err.Error())
}

// Marshal renders the report as YAML
func (r *Report) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// Save writes the report to path
func (r *Report) Save(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
