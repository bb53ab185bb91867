package analysis

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Paths inside an OOXML workbook package.
const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
)

// LoadXLSX reads one sheet of a .xlsx workbook into a Table, using the first
// row as the header. An empty sheetName with sheetIndex <= 0 selects the
// first sheet; sheetIndex is 1-based.
func LoadXLSX(filePath, sheetName string, sheetIndex int) (*Table, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	book := workbook{parts: map[string]*zip.File{}}
	for _, f := range zr.File {
		book.parts[f.Name] = f
	}
	part, err := book.sheetPart(sheetName, sheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}
	grid, err := book.readGrid(part)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}
	return gridToTable(grid), nil
}

type workbook struct {
	parts map[string]*zip.File
}

// decode unmarshals an XML part; a missing part leaves v untouched.
func (b workbook) decode(name string, v any) (bool, error) {
	f, ok := b.parts[name]
	if !ok {
		return false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return false, err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}

// sheetPart maps a sheet name or 1-based sheet id to its worksheet part.
func (b workbook) sheetPart(sheetName string, sheetIndex int) (string, error) {
	var wb struct {
		Sheets []struct {
			Name    string `xml:"name,attr"`
			SheetID int    `xml:"sheetId,attr"`
			RelID   string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if _, err := b.decode(workbookPart, &wb); err != nil {
		return "", err
	}
	if _, err := b.decode(workbookRelsPart, &rels); err != nil {
		return "", err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	if sheetIndex <= 0 {
		sheetIndex = 1
	}
	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
		match := s.SheetID == sheetIndex
		if sheetName != "" {
			match = strings.EqualFold(s.Name, sheetName)
		}
		if !match {
			continue
		}
		if t, ok := targets[s.RelID]; ok && t != "" {
			return worksheetPath(t), nil
		}
	}
	if sheetName != "" {
		return "", fmt.Errorf("sheet %q not found (available: %s)", sheetName, strings.Join(names, ", "))
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", sheetIndex), nil
}

// worksheetPath turns a relationship target ("worksheets/sheet1.xml" or
// "/xl/worksheets/sheet1.xml") into a zip entry name.
func worksheetPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return path.Clean(target)
	}
	return path.Join("xl", target)
}

type richText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (r richText) String() string {
	if len(r.Runs) == 0 {
		return r.T
	}
	var sb strings.Builder
	for _, run := range r.Runs {
		sb.WriteString(run.T)
	}
	return sb.String()
}

type sheetCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	Value  string   `xml:"v"`
	Inline richText `xml:"is"`
}

// readGrid returns the sheet's rows as dense string slices.
func (b workbook) readGrid(part string) ([][]string, error) {
	var sst struct {
		Items []richText `xml:"si"`
	}
	if _, err := b.decode(sharedStringsPart, &sst); err != nil {
		return nil, err
	}
	var ws struct {
		Rows []struct {
			Cells []sheetCell `xml:"c"`
		} `xml:"sheetData>row"`
	}
	found, err := b.decode(part, &ws)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("worksheet %s missing", part)
	}

	grid := make([][]string, 0, len(ws.Rows))
	for _, row := range ws.Rows {
		var out []string
		for _, c := range row.Cells {
			col := columnNumber(c.Ref)
			if col < 0 {
				col = len(out)
			}
			for len(out) <= col {
				out = append(out, "")
			}
			out[col] = cellText(c, sst.Items)
		}
		grid = append(grid, out)
	}
	return grid, nil
}

func cellText(c sheetCell, shared []richText) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i].String()
	case "inlineStr":
		return c.Inline.String()
	}
	return c.Value
}

// columnNumber converts the letters of an A1 reference to a 0-based column,
// or -1 when the reference has no letters.
func columnNumber(ref string) int {
	n := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1
}

// gridToTable promotes the first row to the header and drops blank rows.
func gridToTable(grid [][]string) *Table {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return &Table{}
	}
	t := &Table{Columns: make([]string, len(grid[0]))}
	for i, h := range grid[0] {
		if h = strings.TrimSpace(h); h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		t.Columns[i] = h
	}
	for _, rec := range grid[1:] {
		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		t.Rows = append(t.Rows, recordToRow(t.Columns, rec))
	}
	return t
}
