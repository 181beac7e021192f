// Package pipeline runs manifests end to end: load, plan, render every
// sheet, then merge the binders.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/imposer/internal/binder"
	"github.com/lehigh-university-libraries/imposer/internal/config"
	"github.com/lehigh-university-libraries/imposer/internal/geometry"
	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/manifest"
	"github.com/lehigh-university-libraries/imposer/internal/raster"
	"github.com/lehigh-university-libraries/imposer/internal/report"
)

// MissingResolution is raised when the first page stores no DPI and the
// configured default is used instead
type MissingResolution struct {
	Path    string
	Default raster.Resolution
}

func (w *MissingResolution) Error() string {
	return fmt.Sprintf("no resolution in %s, using %s dpi", w.Path, w.Default)
}

// Job is a manifest that has been loaded and planned but not rendered
type Job struct {
	Name         string
	ManifestPath string
	Pages        manifest.PageList
	Resolution   raster.Resolution
	Plan         *imposition.Plan
	Warnings     []error
}

// Result is the outcome of one manifest
type Result struct {
	Manifest  string
	OutputDir string
	Pages     int
	Sheets    []binder.Finished
	Binders   []binder.Result
	Warnings  []error
	Err       error
	Duration  time.Duration
}

// Failed reports whether the manifest or any of its binders failed
func (r Result) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, b := range r.Binders {
		if b.Err != nil {
			return true
		}
	}
	return false
}

// Orchestrator runs manifests with one immutable configuration
type Orchestrator struct {
	cfg       config.Config
	assembler binder.Assembler
	logger    *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithAssembler replaces the binder assembler picked from the output format
func WithAssembler(a binder.Assembler) Option {
	return func(o *Orchestrator) {
		o.assembler = a
	}
}

// New creates an orchestrator. A nil logger uses slog.Default.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cfg:       cfg,
		assembler: binder.ForFormat(cfg.Format),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunAll processes manifests one at a time. A failing manifest is recorded
// in its Result and the next one still runs.
func (o *Orchestrator) RunAll(ctx context.Context, names []string) []Result {
	results := make([]Result, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Manifest: name, Err: err})
			continue
		}
		o.logger.Info("Processing manifest", "name", name, "progress", fmt.Sprintf("%d/%d", i+1, len(names)))
		res := o.Run(ctx, name)
		if res.Err != nil {
			o.logger.Error("Manifest failed", "name", name, "error", res.Err)
		}
		results = append(results, res)
	}
	return results
}

// Prepare loads and plans one manifest. Only the first page is read.
func (o *Orchestrator) Prepare(name string) (*Job, error) {
	path, err := manifest.Resolve(o.cfg.ManifestPath(), name)
	if err != nil {
		return nil, err
	}

	mode := o.cfg.Mode
	pages, err := manifest.NewLoader(path, o.cfg.InputPath(), mode.MinPages()).Load()
	if err != nil {
		return nil, err
	}
	o.logger.Info("Manifest loaded", "path", path, "pages", len(pages))

	if mode == imposition.Signature {
		pages, err = manifest.ExpandCovers(pages)
		if err != nil {
			return nil, &manifest.ManifestError{Path: path, Reason: "cannot duplicate covers", Err: err}
		}
	}

	job := &Job{
		Name:         manifest.Name(path),
		ManifestPath: path,
		Pages:        pages,
	}

	info, err := raster.Info(pages[0].Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read first page: %w", err)
	}
	job.Resolution = info.Resolution
	if !info.HasResolution {
		job.Resolution = raster.Resolution{X: o.cfg.DefaultDPI, Y: o.cfg.DefaultDPI}
		job.Warnings = append(job.Warnings, &MissingResolution{Path: info.Path, Default: job.Resolution})
	}
	o.logger.Info("Page size", "width", info.Width, "height", info.Height, "dpi", job.Resolution.String())

	params, err := geometry.NewParams(info.Width, info.Height, o.cfg.Sheet, o.cfg.Gutters)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Sheet geometry", "width", params.Sheet.WidthPx, "height", params.Sheet.HeightPx, "ppi", params.Sheet.PxPerInch)

	plan, err := imposition.NewPlanner(params, o.cfg.PlannerOptions()).Plan(len(pages))
	if err != nil {
		return nil, err
	}
	job.Plan = plan
	job.Warnings = append(job.Warnings, plan.Warnings...)

	for _, w := range job.Warnings {
		o.logger.Warn(w.Error(), "manifest", job.Name)
	}
	return job, nil
}

// Run processes one manifest. Errors are returned in Result.Err.
func (o *Orchestrator) Run(ctx context.Context, name string) Result {
	start := time.Now()
	res := Result{Manifest: name}
	defer func() { res.Duration = time.Since(start) }()

	job, err := o.Prepare(name)
	if err != nil {
		res.Err = err
		return res
	}
	res.Manifest = job.Name
	res.Pages = len(job.Pages)
	res.Warnings = append(res.Warnings, job.Warnings...)

	var rep *report.Report
	if o.cfg.Report {
		rep = report.New(job.Name, job.ManifestPath, o.cfg.Mode, string(o.cfg.Format), o.cfg.Guides)
		rep.AddPlan(job.Plan)
		for _, w := range job.Warnings {
			var pw *imposition.PageCountWarning
			if !errors.As(w, &pw) {
				rep.Warn(w)
			}
		}
	}

	dir := filepath.Join(o.cfg.OutputPath(), job.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		res.Err = fmt.Errorf("failed to create output directory: %w", err)
		return res
	}
	res.OutputDir = dir

	sheets, mismatches, err := o.render(ctx, job, dir)
	for _, m := range mismatches {
		o.logger.Warn("Size mismatch", "path", m.Path, "width", m.Width, "height", m.Height, "expected_width", m.ExpectedW, "expected_height", m.ExpectedH)
		res.Warnings = append(res.Warnings, m)
		if rep != nil {
			rep.Warn(m)
		}
	}
	res.Sheets = sheets
	if rep != nil {
		for _, s := range sheets {
			rep.SetFile(s.Sheet, s.Path)
		}
	}
	if err != nil {
		res.Err = err
		o.saveReport(rep, dir, err)
		return res
	}

	groups := binder.Collect(o.cfg.Mode, sheets)
	res.Binders = binder.Bind(ctx, o.assembler, dir, groups)
	for _, b := range res.Binders {
		if b.Err != nil {
			o.logger.Error("Binder failed", "group", b.Group, "error", b.Err)
			continue
		}
		o.logger.Info("Saved binder", "path", b.Path, "sheets", b.Pages)
	}
	if rep != nil {
		rep.AddBinders(res.Binders)
	}

	o.saveReport(rep, dir, nil)
	return res
}

// render draws every sheet of the job. Sheets are independent, so up to
// cfg.Workers of them are in flight at once; the returned slice is ordered
// by sheet index.
func (o *Orchestrator) render(ctx context.Context, job *Job, dir string) ([]binder.Finished, []*raster.SizeMismatch, error) {
	placements := job.Plan.Placements
	finished := make([]binder.Finished, len(placements))
	mismatches := make([][]*raster.SizeMismatch, len(placements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for i, p := range placements {
		g.Go(func() error {
			o.logger.Info("Building sheet", "name", p.Name, "pages", fmt.Sprint(p.Pages), "gutter", p.GutterPx, "progress", fmt.Sprintf("%d/%d", i+1, len(placements)))

			path, mm, err := RenderSheet(gctx, p, job.Pages, job.Plan.Params, job.Resolution, o.cfg.Format, dir)
			if err != nil {
				return fmt.Errorf("sheet %s: %w", p.Name, err)
			}
			mismatches[i] = mm
			finished[i] = binder.Finished{Sheet: p.Sheet, Role: p.Role, Class: p.Class, Path: path}
			o.logger.Debug("Saved sheet", "path", path)
			return nil
		})
	}
	err := g.Wait()

	var done []binder.Finished
	for _, f := range finished {
		if f.Path != "" {
			done = append(done, f)
		}
	}
	var all []*raster.SizeMismatch
	for _, mm := range mismatches {
		all = append(all, mm...)
	}
	return done, all, err
}

func (o *Orchestrator) saveReport(rep *report.Report, dir string, runErr error) {
	if rep == nil {
		return
	}
	if runErr != nil {
		rep.Fail(runErr)
	}
	path := filepath.Join(dir, report.FileName)
	if err := rep.Save(path); err != nil {
		o.logger.Error("Failed to save report", "path", path, "error", err)
		return
	}
	o.logger.Debug("Saved report", "path", path)
}
