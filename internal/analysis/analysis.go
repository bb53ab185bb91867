package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is one record keyed by column name. Values keep the loader's native
// type: strings for delimited text and spreadsheets, JSON scalars for JSON.
type Row = map[string]any

// ColumnType is the inferred kind of a column.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
	TypeDate        ColumnType = "date"
	TypeText        ColumnType = "text"
	TypeEmpty       ColumnType = "empty"
)

// Quality grades a dataset from its missing and duplicate ratios.
type Quality string

const (
	QualityPoor      Quality = "Poor"
	QualityFair      Quality = "Fair"
	QualityGood      Quality = "Good"
	QualityExcellent Quality = "Excellent"
)

const (
	// InferenceSample bounds how many non-empty values feed type inference.
	InferenceSample = 100
	// PreviewRows bounds the preview and per-column sample values.
	PreviewRows = 5

	numericThreshold = 0.8
	dateThreshold    = 0.6
)

// NumericStats summarizes a numeric column.
type NumericStats struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Outliers int     `json:"outliers"`
}

type ColumnProfile struct {
	Name         string        `json:"name"`
	Type         ColumnType    `json:"inferredType"`
	SampleValues []any         `json:"sampleValues"`
	Missing      int           `json:"missing"`
	Unique       int           `json:"unique"`
	Stats        *NumericStats `json:"stats,omitempty"`
}

// DatasetAnalysis is the profile of one file or row set.
type DatasetAnalysis struct {
	Name                string          `json:"name,omitempty"`
	Format              string          `json:"format,omitempty"`
	TotalRows           int             `json:"totalRows"`
	TotalColumns        int             `json:"totalColumns"`
	Columns             []ColumnProfile `json:"columns"`
	MissingValues       int             `json:"missingValues"`
	Duplicates          int             `json:"duplicates"`
	MissingPercentage   float64         `json:"missingPercentage"`
	DuplicatePercentage float64         `json:"duplicatePercentage"`
	DataQuality         Quality         `json:"dataQuality"`
	DataTypes           map[string]int  `json:"dataTypes"`
	Preview             []Row           `json:"preview"`
	Insights            []string        `json:"insights,omitempty"`
}

// Analyze profiles rows against the declared column names.
func Analyze(rows []Row, columns []string) DatasetAnalysis {
	out := DatasetAnalysis{
		TotalRows:    len(rows),
		TotalColumns: len(columns),
		Columns:      []ColumnProfile{},
		DataTypes:    map[string]int{},
		Preview:      []Row{},
	}
	if len(rows) == 0 {
		out.DataQuality = QualityPoor
		return out
	}

	for _, name := range columns {
		col := profileColumn(rows, name)
		out.MissingValues += col.Missing
		out.DataTypes[string(col.Type)]++
		out.Columns = append(out.Columns, col)
	}
	out.Duplicates = countDuplicates(rows)

	missingPct := 0.0
	if cells := len(rows) * len(columns); cells > 0 {
		missingPct = float64(out.MissingValues) / float64(cells) * 100
	}
	dupPct := float64(out.Duplicates) / float64(len(rows)) * 100
	out.MissingPercentage = round2(missingPct)
	out.DuplicatePercentage = round2(dupPct)
	out.DataQuality = ClassifyQuality(missingPct, dupPct)

	for i := 0; i < len(rows) && i < PreviewRows; i++ {
		out.Preview = append(out.Preview, rows[i])
	}
	out.Insights = insights(out)
	return out
}

// ClassifyQuality applies the fixed thresholds in order; Poor wins over Fair.
func ClassifyQuality(missingPct, duplicatePct float64) Quality {
	switch {
	case missingPct > 20 || duplicatePct > 10:
		return QualityPoor
	case missingPct > 5 || duplicatePct > 2:
		return QualityFair
	default:
		return QualityGood
	}
}

func profileColumn(rows []Row, name string) ColumnProfile {
	col := ColumnProfile{Name: name, SampleValues: []any{}}
	var sample []any
	seen := map[string]struct{}{}
	for _, r := range rows {
		v, ok := r[name]
		if !ok || isMissing(v) {
			col.Missing++
			continue
		}
		seen[cast.ToString(v)] = struct{}{}
		if len(sample) < InferenceSample {
			sample = append(sample, v)
		}
		if len(col.SampleValues) < PreviewRows {
			col.SampleValues = append(col.SampleValues, v)
		}
	}
	col.Unique = len(seen)
	col.Type = InferType(sample)
	if col.Type == TypeNumeric {
		col.Stats = numericStats(rows, name)
	}
	return col
}

// InferType classifies already-filtered non-empty values.
func InferType(values []any) ColumnType {
	if len(values) == 0 {
		return TypeEmpty
	}
	var nums, dates int
	for _, v := range values {
		if _, ok := toFloat(v); ok {
			nums++
			continue
		}
		if isDate(v) {
			dates++
		}
	}
	n := float64(len(values))
	switch {
	case float64(nums)/n >= numericThreshold:
		return TypeNumeric
	case float64(dates)/n >= dateThreshold:
		return TypeDate
	default:
		return TypeText
	}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// toFloat accepts Go numeric kinds directly and parses strings with locale
// separator detection. Booleans are not numbers here.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		return parseNumeric(x)
	case bool, nil:
		return 0, false
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func isDate(v any) bool {
	switch x := v.(type) {
	case time.Time:
		return true
	case string:
		_, ok := parseTimeMaybe(strings.TrimSpace(x))
		return ok
	}
	return false
}

// countDuplicates returns how many rows repeat an earlier row exactly.
// Rows are keyed by their JSON encoding, which sorts map keys, so field
// order never matters and 1 and "1" stay distinct.
func countDuplicates(rows []Row) int {
	seen := make(map[string]struct{}, len(rows))
	dups := 0
	for _, r := range rows {
		k := rowKey(r)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

func rowKey(r Row) string {
	b, err := json.Marshal(r)
	if err == nil {
		return string(b)
	}
	// Unencodable values (NaN, channels) fall back to a sorted %#v rendering.
	keys := sortedKeys(r)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%q=%#v;", k, r[k])
	}
	return sb.String()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func insights(a DatasetAnalysis) []string {
	out := []string{
		fmt.Sprintf("Dataset contains %d rows and %d columns", a.TotalRows, a.TotalColumns),
		fmt.Sprintf("%d numeric features and %d non-numeric features", a.DataTypes[string(TypeNumeric)], a.TotalColumns-a.DataTypes[string(TypeNumeric)]),
	}
	if a.MissingValues > 0 {
		out = append(out, fmt.Sprintf("%.2f%% of cells are missing", a.MissingPercentage))
	}
	if a.Duplicates > 0 {
		out = append(out, fmt.Sprintf("%d duplicate rows (%.2f%%)", a.Duplicates, a.DuplicatePercentage))
	}
	return out
}
