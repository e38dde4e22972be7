package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

// TableError reports a crosstab block that cannot be read back.
type TableError struct {
	Sheet string
	Row   int // 1-based worksheet row
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table error in sheet %q row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// SheetTables are the tables found on one worksheet, top to bottom.
type SheetTables struct {
	Sheet  string          `json:"sheet"`
	Tables []*domain.Table `json:"tables"`
}

// ReadTables reads a crosstab workbook. The first sheet holds raw data and is
// skipped. On every other sheet each run of consecutive non-empty rows is a
// table whose first row is the header.
func ReadTables(r io.Reader) ([]SheetTables, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) < 2 {
		return nil, fmt.Errorf("workbook has no crosstab sheets")
	}

	var out []SheetTables
	for _, sheet := range sheets[1:] {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}

		st := SheetTables{Sheet: sheet}
		start := -1
		for i := 0; i <= len(rows); i++ {
			if i < len(rows) && !blankRow(rows[i]) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				t, err := parseBlock(sheet, start, rows[start:i])
				if err != nil {
					return nil, err
				}
				st.Tables = append(st.Tables, t)
				start = -1
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseBlock(sheet string, start int, block [][]string) (*domain.Table, error) {
	header := trimTrailing(block[0])
	if len(header) == 0 {
		return nil, &TableError{Sheet: sheet, Row: start + 1, Err: fmt.Errorf("empty header")}
	}

	t := &domain.Table{
		Key:         header[0],
		Orientation: domain.OrientationColumn,
		Columns:     append([]string(nil), header[1:]...),
	}
	if strings.HasSuffix(sheet, domain.OrientationRow.SheetSuffix()) {
		t.Orientation = domain.OrientationRow
	}

	for i, row := range block[1:] {
		if len(row) == 0 {
			continue
		}
		values := make([]float64, len(t.Columns))
		for j := range t.Columns {
			if j+1 >= len(row) || strings.TrimSpace(row[j+1]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				return nil, &TableError{Sheet: sheet, Row: start + i + 2, Err: err}
			}
			values[j] = v
		}
		t.Rows = append(t.Rows, row[0])
		t.Cells = append(t.Cells, values)
	}
	return t, nil
}

func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

// DrawCharts writes the tables into a new workbook with a bar chart next to
// each table. Tables start at the top of each sheet, three rows apart.
func DrawCharts(ctx context.Context, sheets []SheetTables, out io.Writer) error {
	w, err := NewWriter(Options{Charts: true})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, st := range sheets {
		offset := 0
		for _, t := range st.Tables {
			if err := w.Place(ctx, st.Sheet, offset, t); err != nil {
				return err
			}
			offset += t.Len() + 3
		}
	}
	_, err = w.WriteTo(out)
	return err
}
