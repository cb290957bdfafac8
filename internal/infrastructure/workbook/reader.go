// Package workbook reads the legacy .xlsx workbooks into typed sheet records.
package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row of a sheet, addressed by normalized column name
type Row struct {
	Number int
	cells  map[string]Value
}

// NewRow builds a row from normalized column names. Intended for tests and
// for callers assembling rows outside a workbook.
func NewRow(number int, cells map[string]Value) Row {
	norm := make(map[string]Value, len(cells))
	for k, v := range cells {
		norm[NormalizeHeader(k)] = v
	}
	return Row{Number: number, cells: norm}
}

// Get returns the cell for a column; missing columns yield Empty
func (r Row) Get(column string) Value {
	if v, ok := r.cells[column]; ok {
		return v
	}
	if v, ok := r.cells[NormalizeHeader(column)]; ok {
		return v
	}
	return Empty
}

// IsBlank reports whether every cell of the row is empty
func (r Row) IsBlank() bool {
	for _, v := range r.cells {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// Sheet is a parsed worksheet
type Sheet struct {
	Name    string
	Columns []string // normalized, in sheet order
	Rows    []Row
}

// HasColumn reports whether the sheet has the normalized column
func (s *Sheet) HasColumn(column string) bool {
	column = NormalizeHeader(column)
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Workbook wraps an opened spreadsheet file
type Workbook struct {
	name string
	file *excelize.File
}

// Open reads a workbook from r. name is only used in error messages.
func Open(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	return &Workbook{name: name, file: f}, nil
}

// Name returns the name given to Open
func (w *Workbook) Name() string {
	return w.name
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetNames lists the worksheets in workbook order
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet parses the named worksheet. The name is matched with the same
// folding as column headers. The first non-blank row is the header row.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	actual := ""
	want := NormalizeHeader(name)
	for _, s := range w.file.GetSheetList() {
		if NormalizeHeader(s) == want {
			actual = s
			break
		}
	}
	if actual == "" {
		return nil, fmt.Errorf("%w: %q in %s", ErrMissingSheet, name, w.name)
	}

	raw, err := w.file.GetRows(actual, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrUnreadable, w.name, actual, err)
	}

	headerIdx := -1
	for i, r := range raw {
		if !blankStrings(r) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoHeader, w.name, actual)
	}

	columns := uniqueHeaders(raw[headerIdx])
	sheet := &Sheet{Name: actual, Columns: columns}
	for i := headerIdx + 1; i < len(raw); i++ {
		rowNum := i + 1
		cells := make(map[string]Value, len(columns))
		for j, col := range columns {
			if col == "" {
				continue
			}
			if j >= len(raw[i]) {
				cells[col] = Empty
				continue
			}
			v, err := w.cellValue(actual, j+1, rowNum, raw[i][j])
			if err != nil {
				return nil, err
			}
			cells[col] = v
		}
		row := Row{Number: rowNum, cells: cells}
		if row.IsBlank() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func (w *Workbook) cellValue(sheet string, col, row int, raw string) (Value, error) {
	if strings.TrimSpace(raw) == "" {
		return Empty, nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Value{}, fmt.Errorf("cell coordinates %d,%d: %w", col, row, err)
	}
	typ, err := w.file.GetCellType(sheet, axis)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s/%s!%s: %v", ErrUnreadable, w.name, sheet, axis, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return Value{Raw: raw, Kind: KindBool}, nil
	case excelize.CellTypeDate:
		return Value{Raw: raw, Kind: KindDate}, nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// cells without an explicit type attribute hold numbers
		if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return Value{Raw: raw, Kind: KindNumber}, nil
		}
	}
	return Value{Raw: raw, Kind: KindText}, nil
}

func uniqueHeaders(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if n == "" {
			continue
		}
		seen[n]++
		if seen[n] > 1 {
			n = fmt.Sprintf("%s_%d", n, seen[n])
		}
		out[i] = n
	}
	return out
}

func blankStrings(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
