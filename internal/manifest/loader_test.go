package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func files(pages PageList) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.File
	}
	return out
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader("manifest/red.csv", "pages", 4)

	if loader.manifestPath != "manifest/red.csv" {
		t.Errorf("Expected path manifest/red.csv, got %s", loader.manifestPath)
	}
	if loader.minPages != 4 {
		t.Errorf("Expected minimum 4, got %d", loader.minPages)
	}
}

func TestLoadCSV(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "red.csv", "file,title\na.png,Cover\nb.png,Inside\nc.png,Inside\nd.png,Back\n")

	pages, err := NewLoader(path, "pages", 4).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"a.png", "b.png", "c.png", "d.png"}, files(pages)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
	if pages[2].Index != 2 {
		t.Errorf("Expected index 2, got %d", pages[2].Index)
	}
	if pages[0].Path != filepath.Join("pages", "a.png") {
		t.Errorf("Expected resolved path, got %s", pages[0].Path)
	}
	if pages[0].Attrs["title"] != "Cover" {
		t.Errorf("Expected title attribute Cover, got %q", pages[0].Attrs["title"])
	}
}

func TestLoadCSVExplicitPageOrder(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "blue.csv", "page,file\n3,d.png\n1,b.png\n0,a.png\n2,c.png\n")

	pages, err := NewLoader(path, "", 2).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff([]string{"a.png", "b.png", "c.png", "d.png"}, files(pages)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
	for i, p := range pages {
		if p.Index != i {
			t.Errorf("Expected index %d, got %d", i, p.Index)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		file string
		data string
		min  int
	}{
		{name: "missing file column", file: "a.csv", data: "image\nx.png\ny.png\n", min: 2},
		{name: "too few rows", file: "b.csv", data: "file\nx.png\ny.png\n", min: 4},
		{name: "blank file", file: "c.csv", data: "file,title\nx.png,a\n,b\n", min: 2},
		{name: "duplicate page", file: "d.csv", data: "file,page\nx.png,1\ny.png,1\n", min: 2},
		{name: "bad page number", file: "e.csv", data: "file,page\nx.png,one\ny.png,2\n", min: 2},
		{name: "ragged row", file: "f.csv", data: "file,title\nx.png,a\ny.png\n", min: 2},
		{name: "empty", file: "g.csv", data: "", min: 2},
		{name: "bad json", file: "h.jsonl", data: "{\"file\": \"x.png\"}\n{nope\n", min: 1},
		{name: "mixed page numbers", file: "i.jsonl", data: "{\"file\": \"x.png\", \"page\": 1}\n{\"file\": \"y.png\"}\n", min: 1},
		{name: "unsupported format", file: "j.txt", data: "file\nx.png\n", min: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tmpDir, tt.file, tt.data)
			_, err := NewLoader(path, "", tt.min).Load()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var me *ManifestError
			if !errors.As(err, &me) {
				t.Errorf("Expected ManifestError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/path/red.csv", "", 1).Load()
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "yellow.jsonl", `{"file":"b.png","page":2,"note":"x"}

{"file":"a.png","page":1}
`)

	pages, err := NewLoader(path, "in", 2).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a.png", "b.png"}, files(pages)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
	if pages[1].Attrs["note"] != "x" {
		t.Errorf("Expected note attribute x, got %q", pages[1].Attrs["note"])
	}
}

func TestLoadParquet(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "green.parquet")

	rows := []parquetRow{
		{File: "a.png"}, {File: "b.png"}, {File: "c.png"}, {File: "d.png"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}

	pages, err := NewLoader(path, "", 4).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a.png", "b.png", "c.png", "d.png"}, files(pages)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}
