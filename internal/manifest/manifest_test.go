package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pagesOf(names ...string) PageList {
	pages := make(PageList, len(names))
	for i, n := range names {
		pages[i] = PageRecord{Index: i, File: n, Path: n}
	}
	return pages
}

func TestExpandCovers(t *testing.T) {
	expanded, err := ExpandCovers(pagesOf("A", "B", "C", "D"))
	if err != nil {
		t.Fatalf("ExpandCovers failed: %v", err)
	}

	want := []string{"B", "A", "A", "B", "C", "D", "D", "C"}
	if diff := cmp.Diff(want, files(expanded)); diff != "" {
		t.Errorf("expanded order mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandCoversLength(t *testing.T) {
	for n := 2; n <= 12; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('a' + i))
		}
		expanded, err := ExpandCovers(pagesOf(names...))
		if err != nil {
			t.Fatalf("ExpandCovers(%d) failed: %v", n, err)
		}
		if len(expanded) != n+4 {
			t.Errorf("Expected %d pages, got %d", n+4, len(expanded))
		}
	}
}

func TestExpandCoversKeepsManifestIndex(t *testing.T) {
	expanded, err := ExpandCovers(pagesOf("A", "B", "C", "D"))
	if err != nil {
		t.Fatalf("ExpandCovers failed: %v", err)
	}
	if expanded[0].Index != 1 || expanded[7].Index != 2 {
		t.Errorf("Expected duplicated covers to keep their manifest index, got %d and %d", expanded[0].Index, expanded[7].Index)
	}
}

func TestExpandCoversTooShort(t *testing.T) {
	if _, err := ExpandCovers(pagesOf("A")); err == nil {
		t.Error("Expected error for single page, got nil")
	}
	if _, err := ExpandCovers(nil); err == nil {
		t.Error("Expected error for empty list, got nil")
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "red.jsonl", "{\"file\":\"a.png\"}\n")
	writeFile(t, tmpDir, "blue.csv", "file\na.png\n")

	tests := []struct {
		name     string
		expected string
	}{
		{name: "red", expected: filepath.Join(tmpDir, "red.jsonl")},
		{name: "blue", expected: filepath.Join(tmpDir, "blue.csv")},
		{name: "other.csv", expected: filepath.Join(tmpDir, "other.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tmpDir, tt.name)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}

	_, err := Resolve(tmpDir, "missing")
	var me *ManifestError
	if !errors.As(err, &me) {
		t.Errorf("Expected ManifestError for missing manifest, got %v", err)
	}
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"manifest/red.csv":   "red",
		"/tmp/yellow.jsonl":  "yellow",
		"blue":               "blue",
		"book.draft.parquet": "book",
	}
	for path, expected := range tests {
		if got := Name(path); got != expected {
			t.Errorf("Name(%q): expected %s, got %s", path, expected, got)
		}
	}
}

func TestSplitNames(t *testing.T) {
	got := SplitNames(" red, yellow,,blue ")
	if diff := cmp.Diff([]string{"red", "yellow", "blue"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
