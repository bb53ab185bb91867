package analysis

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is the normalized shape every tabular loader produces.
type Table struct {
	Columns []string
	Rows    []Row
}

// Format names a file family for dispatch.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatXLSX    Format = "xlsx"
	FormatJSON    Format = "json"
	FormatImage   Format = "image"
	FormatAudio   Format = "audio"
	FormatVideo   Format = "video"
	FormatText    Format = "text"
	FormatArchive Format = "archive"
)

// ErrUnsupportedFormat is returned for extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var extFormats = map[string]Format{
	".csv": FormatCSV, ".tsv": FormatTSV, ".tab": FormatTSV,
	".xlsx": FormatXLSX, ".json": FormatJSON,
	".jpg": FormatImage, ".jpeg": FormatImage, ".png": FormatImage, ".gif": FormatImage, ".bmp": FormatImage, ".webp": FormatImage,
	".mp3": FormatAudio, ".wav": FormatAudio, ".flac": FormatAudio, ".ogg": FormatAudio, ".m4a": FormatAudio,
	".mp4": FormatVideo, ".avi": FormatVideo, ".mov": FormatVideo, ".mkv": FormatVideo, ".webm": FormatVideo,
	".txt": FormatText, ".md": FormatText,
	".zip": FormatArchive, ".tar": FormatArchive, ".gz": FormatArchive, ".tgz": FormatArchive,
}

// DetectFormat maps a file name to its Format by extension.
func DetectFormat(name string) (Format, bool) {
	f, ok := extFormats[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Tabular reports whether the format goes through the row/column path.
func (f Format) Tabular() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatXLSX, FormatJSON:
		return true
	}
	return false
}

// AnalyzeFile loads and profiles a file. Non-tabular formats skip loading
// and get MinimalAnalysis.
func AnalyzeFile(path string) (DatasetAnalysis, error) {
	format, ok := DetectFormat(path)
	if !ok {
		return DatasetAnalysis{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if !format.Tabular() {
		a := MinimalAnalysis(format)
		a.Name = filepath.Base(path)
		return a, nil
	}
	t, err := LoadFile(path)
	if err != nil {
		return DatasetAnalysis{}, err
	}
	a := Analyze(t.Rows, t.Columns)
	a.Name = filepath.Base(path)
	a.Format = string(format)
	return a, nil
}

// LoadFile dispatches to the loader for the file's extension.
func LoadFile(path string) (*Table, error) {
	format, ok := DetectFormat(path)
	if !ok || !format.Tabular() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if format == FormatXLSX {
		return LoadXLSX(path, "", 0)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	switch format {
	case FormatJSON:
		return LoadJSON(f)
	case FormatTSV:
		return LoadDelimited(f, '\t')
	default:
		return LoadDelimited(f, 0)
	}
}

// LoadDelimited reads delimited text with a header row. A zero delimiter is
// sniffed from the header line among ',', ';' and tab.
func LoadDelimited(r io.Reader, delim rune) (*Table, error) {
	br := bufio.NewReader(r)
	if delim == 0 {
		head, _ := br.Peek(4096)
		delim = sniffDelimiter(head)
	}
	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}
	t := &Table{Columns: cols}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && len(cols) > 1 {
			continue
		}
		t.Rows = append(t.Rows, recordToRow(cols, rec))
	}
	return t, nil
}

// recordToRow maps positional cells to names; short records leave the
// trailing columns absent so they count as missing.
func recordToRow(cols, rec []string) Row {
	row := make(Row, len(cols))
	for i, c := range cols {
		if i < len(rec) {
			row[c] = rec[i]
		}
	}
	return row
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// LoadJSON accepts an array of objects or a single object. Columns are the
// union of keys in first-seen order; numbers are kept as json.Number.
func LoadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var objs []map[string]any
	switch v := raw.(type) {
	case map[string]any:
		objs = []map[string]any{v}
	case []any:
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode json: element %d is not an object", i)
			}
			objs = append(objs, m)
		}
	default:
		return nil, errors.New("decode json: expected an object or an array of objects")
	}
	t := &Table{}
	seen := map[string]struct{}{}
	for _, m := range objs {
		// Map order is random; sort new keys per object for stable columns.
		for _, k := range sortedKeys(m) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, Row(m))
	}
	return t, nil
}

// MinimalAnalysis is the fixed-shape profile for non-tabular uploads: one
// sample whose features describe the media type.
func MinimalAnalysis(format Format) DatasetAnalysis {
	features := map[Format][]string{
		FormatImage:   {"filename", "width", "height", "channels", "label"},
		FormatAudio:   {"filename", "duration", "sample_rate", "channels", "label"},
		FormatVideo:   {"filename", "duration", "frame_rate", "resolution", "label"},
		FormatText:    {"text", "length", "label"},
		FormatArchive: {"filename", "size", "label"},
	}[format]
	if features == nil {
		features = []string{"content"}
	}
	cols := make([]ColumnProfile, len(features))
	types := map[string]int{}
	for i, f := range features {
		typ := TypeText
		switch f {
		case "width", "height", "channels", "duration", "sample_rate", "frame_rate", "length", "size":
			typ = TypeNumeric
		}
		cols[i] = ColumnProfile{Name: f, Type: typ, SampleValues: []any{}}
		types[string(typ)]++
	}
	return DatasetAnalysis{
		Format:       string(format),
		TotalRows:    1,
		TotalColumns: len(features),
		Columns:      cols,
		DataQuality:  QualityGood,
		DataTypes:    types,
		Preview:      []Row{},
		Insights:     []string{fmt.Sprintf("%s input: tabular profiling skipped", format)},
	}
}
