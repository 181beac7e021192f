// Package manifest reads the ordered page lists that drive an imposition run.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PageRecord is one page image named by a manifest
type PageRecord struct {
	// Index is the 0-based position of the page in print order
	Index int `yaml:"index"`
	// File is the value of the manifest's file column
	File string `yaml:"file"`
	// Path is File resolved against the input directory
	Path string `yaml:"path"`
	// Attrs holds the remaining manifest columns
	Attrs map[string]string `yaml:"attrs,omitempty"`
}

// PageList is ordered by print order
type PageList []PageRecord

// Paths returns the resolved image paths in list order
func (l PageList) Paths() []string {
	paths := make([]string, len(l))
	for i, p := range l {
		paths[i] = p.Path
	}
	return paths
}

// ManifestError reports a manifest that cannot be used. It is fatal for that
// manifest only.
type ManifestError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ManifestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ExpandCovers duplicates the cover pages for signature printing: the first
// two pages are prepended in reverse order and the last two appended in
// reverse order, so [A B C D] becomes [B A A B C D D C].
func ExpandCovers(pages PageList) (PageList, error) {
	n := len(pages)
	if n < 2 {
		return nil, fmt.Errorf("cannot expand covers of %d pages", n)
	}

	expanded := make(PageList, 0, n+4)
	expanded = append(expanded, pages[1], pages[0])
	expanded = append(expanded, pages...)
	expanded = append(expanded, pages[n-1], pages[n-2])
	return expanded, nil
}

// Extensions lists the manifest formats in lookup order
var Extensions = []string{".csv", ".jsonl", ".parquet"}

// Resolve finds the manifest file for a name. Names with an extension are
// used as given, otherwise each supported extension is tried in turn.
func Resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty manifest name")
	}

	if filepath.Ext(name) != "" {
		return filepath.Join(dir, name), nil
	}

	for _, ext := range Extensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &ManifestError{
		Path:   filepath.Join(dir, name+Extensions[0]),
		Reason: "not found",
		Err:    os.ErrNotExist,
	}
}

// Name returns the manifest's base name without extension
func Name(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// SplitNames parses a comma-separated manifest list
func SplitNames(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
