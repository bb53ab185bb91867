package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestAnalyze_EmptyRows(t *testing.T) {
	a := Analyze(nil, []string{"a", "b"})
	if a.DataQuality != QualityPoor || a.MissingValues != 0 || a.Duplicates != 0 {
		t.Fatalf("unexpected empty analysis: %+v", a)
	}
	if len(a.Columns) != 0 {
		t.Fatalf("expected no column profiles, got %d", len(a.Columns))
	}
}

func TestAnalyze_DuplicateScenario(t *testing.T) {
	rows := []Row{
		{"a": 1, "b": "x"},
		{"a": 2, "b": "y"},
		{"b": "x", "a": 1},
	}
	a := Analyze(rows, []string{"a", "b"})
	if a.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", a.Duplicates)
	}
	if a.DuplicatePercentage != 33.33 {
		t.Fatalf("duplicatePercentage = %v, want 33.33", a.DuplicatePercentage)
	}
	if a.MissingValues != 0 {
		t.Fatalf("missing = %d", a.MissingValues)
	}
	// 33% duplicates is above the Poor threshold of 10%.
	if a.DataQuality != QualityPoor {
		t.Fatalf("quality = %s, want Poor", a.DataQuality)
	}
}

func TestAnalyze_StructuralEquality(t *testing.T) {
	rows := []Row{
		{"a": 1, "b": "x"},
		{"a": "1", "b": "x"},
		{"a": 1, "b": "x", "c": nil},
	}
	if got := countDuplicates(rows); got != 0 {
		t.Fatalf("duplicates = %d, want 0 for differently typed or shaped rows", got)
	}
}

func TestClassifyQuality(t *testing.T) {
	cases := []struct {
		missing, dup float64
		want         Quality
	}{
		{0, 0, QualityGood},
		{5, 2, QualityGood},
		{5.1, 0, QualityFair},
		{0, 2.1, QualityFair},
		{20, 10, QualityFair},
		{20.1, 0, QualityPoor},
		{0, 10.1, QualityPoor},
		{0, 33.33, QualityPoor},
		{6, 11, QualityPoor},
	}
	for _, tc := range cases {
		if got := ClassifyQuality(tc.missing, tc.dup); got != tc.want {
			t.Errorf("ClassifyQuality(%v, %v) = %s, want %s", tc.missing, tc.dup, got, tc.want)
		}
	}
}

func TestAnalyze_PoorWhenDuplicatesDominate(t *testing.T) {
	// 50 rows, 6 exact repeats of row 0 (12%), no missing cells.
	var rows []Row
	for i := 0; i < 44; i++ {
		rows = append(rows, Row{"id": fmt.Sprint(i), "v": "k"})
	}
	for i := 0; i < 6; i++ {
		rows = append(rows, Row{"id": "0", "v": "k"})
	}
	a := Analyze(rows, []string{"id", "v"})
	if a.Duplicates != 6 || a.DataQuality != QualityPoor {
		t.Fatalf("duplicates=%d quality=%s, want 6/Poor", a.Duplicates, a.DataQuality)
	}
}

func TestAnalyze_FairOnSmallDuplicateShare(t *testing.T) {
	// 40 rows, 2 repeats: 5% duplicates, between the Fair and Poor thresholds.
	var rows []Row
	for i := 0; i < 38; i++ {
		rows = append(rows, Row{"id": fmt.Sprint(i)})
	}
	rows = append(rows, Row{"id": "1"}, Row{"id": "2"})
	a := Analyze(rows, []string{"id"})
	if a.DuplicatePercentage != 5 || a.DataQuality != QualityFair {
		t.Fatalf("dup%%=%v quality=%s, want 5/Fair", a.DuplicatePercentage, a.DataQuality)
	}
}

func TestAnalyze_MissingValues(t *testing.T) {
	rows := []Row{
		{"a": "1", "b": ""},
		{"a": nil, "b": "x"},
		{"b": "  "},
		{"a": "4", "b": "y"},
	}
	a := Analyze(rows, []string{"a", "b"})
	if a.MissingValues != 4 {
		t.Fatalf("missing = %d, want 4", a.MissingValues)
	}
	if a.MissingValues > a.TotalRows*a.TotalColumns {
		t.Fatalf("missing exceeds cell count")
	}
	if a.MissingPercentage != 50 || a.DataQuality != QualityPoor {
		t.Fatalf("missing%%=%v quality=%s", a.MissingPercentage, a.DataQuality)
	}
	if got := column(t, a, "a"); got.Missing != 2 || got.Type != TypeNumeric {
		t.Fatalf("column a = %+v", got)
	}
}

func TestInferType_RoundTripDelimited(t *testing.T) {
	var b strings.Builder
	b.WriteString("num,date,mixed,label,blank\n")
	for i := 0; i < 10; i++ {
		num := fmt.Sprintf("%d.5", i)
		if i >= 8 {
			num = "n/a" // 80% numeric
		}
		date := fmt.Sprintf("2024-01-%02d", i+1)
		if i >= 6 {
			date = "unknown" // 60% dates
		}
		mixed := fmt.Sprint(i)
		if i%2 == 1 {
			mixed = "word"
		}
		fmt.Fprintf(&b, "%s,%s,%s,item%d,\n", num, date, mixed, i)
	}
	tbl, err := LoadDelimited(strings.NewReader(b.String()), 0)
	if err != nil {
		t.Fatalf("LoadDelimited: %v", err)
	}
	a := Analyze(tbl.Rows, tbl.Columns)
	want := map[string]ColumnType{
		"num":   TypeNumeric,
		"date":  TypeDate,
		"mixed": TypeText,
		"label": TypeText,
		"blank": TypeEmpty,
	}
	for name, typ := range want {
		if got := column(t, a, name).Type; got != typ {
			t.Errorf("%s: type = %s, want %s", name, got, typ)
		}
	}
}

func TestInferType_SamplesFirstHundred(t *testing.T) {
	vals := make([]any, 0, 100)
	for i := 0; i < 100; i++ {
		vals = append(vals, float64(i))
	}
	if got := InferType(vals); got != TypeNumeric {
		t.Fatalf("type = %s", got)
	}
	// Text values past the sampling window never reach inference.
	rows := make([]Row, 0, 150)
	for i := 0; i < 100; i++ {
		rows = append(rows, Row{"x": fmt.Sprint(i)})
	}
	for i := 0; i < 50; i++ {
		rows = append(rows, Row{"x": "text"})
	}
	if got := profileColumn(rows, "x").Type; got != TypeNumeric {
		t.Fatalf("profile type = %s, want numeric", got)
	}
}

func TestLoadJSON_ArrayAndObject(t *testing.T) {
	arr, err := LoadJSON(strings.NewReader(`[{"a":1,"b":"x"},{"a":2,"c":true}]`))
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if strings.Join(arr.Columns, ",") != "a,b,c" || len(arr.Rows) != 2 {
		t.Fatalf("array table = %+v", arr)
	}
	a := Analyze(arr.Rows, arr.Columns)
	if column(t, a, "a").Type != TypeNumeric || column(t, a, "c").Missing != 1 {
		t.Fatalf("unexpected profile: %+v", a.Columns)
	}

	obj, err := LoadJSON(strings.NewReader(`{"name":"iris","rows":150}`))
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if len(obj.Rows) != 1 || len(obj.Columns) != 2 {
		t.Fatalf("object table = %+v", obj)
	}

	if _, err := LoadJSON(strings.NewReader(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array of scalars")
	}
}

func TestLoadDelimited_TabAndRagged(t *testing.T) {
	tbl, err := LoadDelimited(strings.NewReader("a\tb\tc\n1\t2\n"), 0)
	if err != nil {
		t.Fatalf("LoadDelimited: %v", err)
	}
	if len(tbl.Columns) != 3 || len(tbl.Rows) != 1 {
		t.Fatalf("table = %+v", tbl)
	}
	if _, ok := tbl.Rows[0]["c"]; ok {
		t.Fatalf("short record should leave trailing column absent")
	}
	if a := Analyze(tbl.Rows, tbl.Columns); a.MissingValues != 1 {
		t.Fatalf("missing = %d, want 1", a.MissingValues)
	}
}

func TestAnalyzeFile_NonTabular(t *testing.T) {
	path := writeFile(t, "photo.PNG", "not really a png")
	a, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if a.TotalRows != 1 || a.Format != "image" || a.TotalColumns != len(a.Columns) {
		t.Fatalf("unexpected minimal analysis: %+v", a)
	}
	if _, err := AnalyzeFile(writeFile(t, "data.parquet", "x")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestMockCSV_AnalyzesCleanly(t *testing.T) {
	for _, name := range []string{"music-genre", "house-prices", "image-classification", "anything"} {
		tbl, err := LoadDelimited(strings.NewReader(MockCSV(name)), 0)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		a := Analyze(tbl.Rows, tbl.Columns)
		if a.TotalRows != 5 || a.DataQuality != QualityGood {
			t.Fatalf("%s: rows=%d quality=%s", name, a.TotalRows, a.DataQuality)
		}
	}
}

func TestParseNumeric(t *testing.T) {
	cases := map[string]float64{
		"42": 42, "-3.5": -3.5, "1,5": 1.5, "1.000,25": 1000.25, "1,234,567": 1234567,
		"1,234.5": 1234.5, "12%": 12, "1e3": 1000,
	}
	for in, want := range cases {
		got, ok := parseNumeric(in)
		if !ok || got != want {
			t.Errorf("parseNumeric(%q) = %v,%v want %v", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "abc", "2024-01-01", "NaN", "Inf"} {
		if _, ok := parseNumeric(in); ok {
			t.Errorf("parseNumeric(%q) unexpectedly ok", in)
		}
	}
}

func TestColumnProfile_JSONFieldNames(t *testing.T) {
	a := Analyze([]Row{{"n": "1"}, {"n": "2"}}, []string{"n"})
	b, err := json.Marshal(a.Columns[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["inferredType"] != "numeric" {
		t.Fatalf("inferredType = %v in %s", got["inferredType"], b)
	}
	if _, ok := got["type"]; ok {
		t.Fatalf("unexpected legacy type key in %s", b)
	}
}
