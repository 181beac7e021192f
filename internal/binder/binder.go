// Package binder groups finished sheets and concatenates each group into a
// single paginated PDF.
package binder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lehigh-university-libraries/imposer/internal/imposition"
	"github.com/lehigh-university-libraries/imposer/internal/raster"
)

// Finished is one rendered sheet on disk
type Finished struct {
	Sheet int
	Role  imposition.Role
	Class imposition.Class
	Path  string
}

// Group is a named, ordered set of sheet files merged into one binder
type Group struct {
	Name  string
	Paths []string
}

// Ext is the extension of every binder document
const Ext = ".pdf"

// Collect builds the binder groups for a mode. Sheets are sorted by index
// first, so the order in which they finished rendering does not matter.
// Groups without sheets are dropped.
func Collect(mode imposition.Mode, sheets []Finished) []Group {
	sorted := make([]Finished, len(sheets))
	copy(sorted, sheets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sheet < sorted[j].Sheet })

	var groups []Group
	if mode == imposition.Spread {
		var all, combined []string
		var front, back string
		for _, s := range sorted {
			switch s.Role {
			case imposition.RoleFrontCover:
				front = s.Path
			case imposition.RoleBackCover:
				back = s.Path
			case imposition.RoleCoverSpread:
				combined = append(combined, s.Path)
			case imposition.RoleSpread:
				all = append(all, s.Path)
				combined = append(combined, s.Path)
			}
		}
		if front != "" {
			all = append([]string{front}, all...)
		}
		if back != "" {
			all = append(all, back)
		}
		groups = []Group{
			{Name: "binder", Paths: all},
			{Name: "binder_combined_covers", Paths: combined},
		}
	} else {
		var all, even, odd, covers []string
		for _, s := range sorted {
			if s.Class.Cover {
				covers = append(covers, s.Path)
				continue
			}
			all = append(all, s.Path)
			if s.Class.Odd {
				odd = append(odd, s.Path)
			} else {
				even = append(even, s.Path)
			}
		}
		groups = []Group{
			{Name: "binder", Paths: all},
			{Name: "binder_even", Paths: even},
			{Name: "binder_odd", Paths: odd},
			{Name: "binder_covers", Paths: covers},
		}
	}

	nonEmpty := groups[:0]
	for _, g := range groups {
		if len(g.Paths) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	return nonEmpty
}

// Assembler concatenates ordered sheet files into one document
type Assembler interface {
	Merge(ctx context.Context, paths []string, out string) error
}

// MergeError is a failed binder. Other groups of the same manifest are still
// attempted.
type MergeError struct {
	Group string
	Out   string
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("failed to merge %s into %s: %v", e.Group, e.Out, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// ForFormat picks the assembler for sheets written in format f
func ForFormat(f raster.Format) Assembler {
	if f == raster.PDF {
		return &PDFMerger{}
	}
	return &ImageBinder{}
}

// Result is the outcome of merging one group
type Result struct {
	Group string `yaml:"group"`
	Path  string `yaml:"path"`
	Pages int    `yaml:"pages"`
	Err   error  `yaml:"-"`
}

// Bind merges every group into dir/<group>.pdf. Each group is independent:
// a failure is recorded as a MergeError and the next group proceeds.
func Bind(ctx context.Context, a Assembler, dir string, groups []Group) []Result {
	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		out := filepath.Join(dir, g.Name+Ext)
		r := Result{Group: g.Name, Path: out, Pages: len(g.Paths)}

		if err := ctx.Err(); err != nil {
			r.Err = &MergeError{Group: g.Name, Out: out, Err: err}
		} else if err := checkReadable(g.Paths); err != nil {
			r.Err = &MergeError{Group: g.Name, Out: out, Err: err}
		} else if err := a.Merge(ctx, g.Paths, out); err != nil {
			r.Err = &MergeError{Group: g.Name, Out: out, Err: err}
		}
		results = append(results, r)
	}
	return results
}

func checkReadable(paths []string) error {
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		f.Close()
	}
	return nil
}
