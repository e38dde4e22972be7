package domain

import "fmt"

// GrandTotal labels the aggregate row and column of every crosstab.
const GrandTotal = "Grand Total"

// Orientation selects how proportions are normalized.
type Orientation string

const (
	// OrientationColumn normalizes by demographic subgroup totals.
	OrientationColumn Orientation = "column"
	// OrientationRow normalizes by answer category totals.
	OrientationRow Orientation = "row"
)

// SheetSuffix returns the worksheet suffix used for tables of this orientation.
func (o Orientation) SheetSuffix() string {
	if o == OrientationRow {
		return "(row)"
	}
	return "(col)"
}

// QuestionKind distinguishes single-answer from multi-answer questions.
type QuestionKind string

const (
	SingleChoice QuestionKind = "single"
	MultiChoice  QuestionKind = "multi"
)

// Table is a weighted crosstab: answer rows by demographic columns.
// Cells hold proportions in [0,1] rounded to 4 decimals.
type Table struct {
	Key         string       `json:"key"`
	Demographic string       `json:"demographic,omitempty"`
	Kind        QuestionKind `json:"kind"`
	Orientation Orientation  `json:"orientation"`
	Rows        []string     `json:"rows"`
	Columns     []string     `json:"columns"`
	Cells       [][]float64  `json:"cells"`
}

// Len returns the number of answer rows.
func (t *Table) Len() int { return len(t.Rows) }

// Header returns the primary-key column name followed by the demographic columns.
func (t *Table) Header() []string {
	return append([]string{t.Key}, t.Columns...)
}

// Value looks a cell up by labels.
func (t *Table) Value(row, column string) (float64, bool) {
	r := indexOf(t.Rows, row)
	c := indexOf(t.Columns, column)
	if r < 0 || c < 0 {
		return 0, false
	}
	return t.Cells[r][c], true
}

// ColumnValues returns a copy of the cells in the named column, in row order.
func (t *Table) ColumnValues(column string) ([]float64, error) {
	c := indexOf(t.Columns, column)
	if c < 0 {
		return nil, fmt.Errorf("table %q has no column %q", t.Key, column)
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cells[i][c]
	}
	return out, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cells := make([][]float64, len(t.Cells))
	for i, r := range t.Cells {
		cells[i] = append([]float64(nil), r...)
	}
	c := *t
	c.Rows = append([]string(nil), t.Rows...)
	c.Columns = append([]string(nil), t.Columns...)
	c.Cells = cells
	return &c
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
