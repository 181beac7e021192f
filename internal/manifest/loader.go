package manifest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const (
	fileColumn = "file"
	pageColumn = "page"
)

// Loader reads one manifest file into a PageList
type Loader struct {
	manifestPath string
	inputDir     string
	minPages     int
}

// NewLoader creates a loader. Page files are resolved against inputDir and
// manifests with fewer than minPages rows are rejected.
func NewLoader(manifestPath, inputDir string, minPages int) *Loader {
	return &Loader{
		manifestPath: manifestPath,
		inputDir:     inputDir,
		minPages:     minPages,
	}
}

// row is a manifest entry before ordering
type row struct {
	file  string
	page  *int
	attrs map[string]string
}

// parquetRow is the parquet manifest schema
type parquetRow struct {
	File string `parquet:"file"`
	Page *int64 `parquet:"page,optional"`
}

// Load reads the manifest, detecting the format from its extension
func (l *Loader) Load() (PageList, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	var (
		rows []row
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = l.loadCSV()
	case ".jsonl", ".json":
		rows, err = l.loadJSONL()
	case ".parquet":
		rows, err = l.loadParquet()
	default:
		return nil, l.fail(fmt.Sprintf("unsupported file format %q (supported: .csv, .jsonl, .parquet)", ext), nil)
	}
	if err != nil {
		return nil, err
	}

	return l.build(rows)
}

func (l *Loader) fail(reason string, err error) *ManifestError {
	return &ManifestError{Path: l.manifestPath, Reason: reason, Err: err}
}

// loadCSV reads a CSV manifest with a header row
func (l *Loader) loadCSV() ([]row, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, l.fail("failed to open manifest", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, l.fail("empty manifest", nil)
	}
	if err != nil {
		return nil, l.fail("failed to read header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	fileIdx, pageIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(h) {
		case fileColumn:
			fileIdx = i
		case pageColumn:
			pageIdx = i
		}
	}
	if fileIdx < 0 {
		return nil, l.fail("missing \"file\" column", nil)
	}

	var rows []row
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, l.fail(fmt.Sprintf("malformed CSV at line %d", lineNum), err)
		}

		r := row{attrs: make(map[string]string)}
		for i, cell := range record {
			switch {
			case i == fileIdx:
				r.file = strings.TrimSpace(cell)
			case i == pageIdx:
				n, err := strconv.Atoi(strings.TrimSpace(cell))
				if err != nil {
					return nil, l.fail(fmt.Sprintf("invalid page number at line %d", lineNum), err)
				}
				r.page = &n
			case i < len(header):
				r.attrs[header[i]] = cell
			}
		}
		rows = append(rows, r)
	}

	slog.Debug("Read CSV manifest", "path", l.manifestPath, "rows", len(rows))
	return rows, nil
}

// loadJSONL reads one JSON object per line
func (l *Loader) loadJSONL() ([]row, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, l.fail("failed to open manifest", err)
	}
	defer file.Close()

	var rows []row
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, l.fail(fmt.Sprintf("failed to parse JSON at line %d", lineNum), err)
		}

		r := row{attrs: make(map[string]string)}
		for key, val := range obj {
			switch key {
			case fileColumn:
				s, ok := val.(string)
				if !ok {
					return nil, l.fail(fmt.Sprintf("\"file\" is not a string at line %d", lineNum), nil)
				}
				r.file = strings.TrimSpace(s)
			case pageColumn:
				num, ok := val.(json.Number)
				if !ok {
					return nil, l.fail(fmt.Sprintf("\"page\" is not a number at line %d", lineNum), nil)
				}
				n, err := strconv.Atoi(num.String())
				if err != nil {
					return nil, l.fail(fmt.Sprintf("invalid page number at line %d", lineNum), err)
				}
				r.page = &n
			default:
				r.attrs[key] = fmt.Sprint(val)
			}
		}
		rows = append(rows, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, l.fail("error reading manifest", err)
	}

	slog.Debug("Read JSONL manifest", "path", l.manifestPath, "rows", len(rows))
	return rows, nil
}

// loadParquet reads a parquet manifest in batches
func (l *Loader) loadParquet() ([]row, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, l.fail("failed to open manifest", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, l.fail("failed to stat manifest", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, l.fail("failed to open parquet", err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	var rows []row
	batch := make([]parquetRow, 128)
	for {
		n, err := reader.Read(batch)
		for _, pr := range batch[:n] {
			r := row{file: strings.TrimSpace(pr.File)}
			if pr.Page != nil {
				p := int(*pr.Page)
				r.page = &p
			}
			rows = append(rows, r)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, l.fail("failed to read parquet rows", err)
		}
	}

	slog.Debug("Read parquet manifest", "path", l.manifestPath, "rows", len(rows), "row_groups", len(pf.RowGroups()))
	return rows, nil
}

// build validates rows, applies explicit page ordering and resolves paths
func (l *Loader) build(rows []row) (PageList, error) {
	if len(rows) < l.minPages {
		return nil, l.fail(fmt.Sprintf("need at least %d pages, found %d", l.minPages, len(rows)), nil)
	}

	explicit := 0
	for i, r := range rows {
		if r.file == "" {
			return nil, l.fail(fmt.Sprintf("row %d has no file", i+1), nil)
		}
		if r.page != nil {
			explicit++
		}
	}

	switch explicit {
	case 0:
	case len(rows):
		sort.SliceStable(rows, func(a, b int) bool { return *rows[a].page < *rows[b].page })
		for i := 1; i < len(rows); i++ {
			if *rows[i].page == *rows[i-1].page {
				return nil, l.fail(fmt.Sprintf("duplicate page number %d", *rows[i].page), nil)
			}
		}
	default:
		return nil, l.fail(fmt.Sprintf("page number set on %d of %d rows", explicit, len(rows)), nil)
	}

	pages := make(PageList, len(rows))
	for i, r := range rows {
		attrs := r.attrs
		if len(attrs) == 0 {
			attrs = nil
		}
		pages[i] = PageRecord{
			Index: i,
			File:  r.file,
			Path:  filepath.Join(l.inputDir, r.file),
			Attrs: attrs,
		}
	}
	return pages, nil
}
