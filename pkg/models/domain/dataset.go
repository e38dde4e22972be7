package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a referenced column does not exist in the dataset.
var ErrMissingColumn = errors.New("missing column")

// ErrInvalidWeight is returned when a weight value is not a finite non-negative number.
var ErrInvalidWeight = errors.New("invalid weight")

// ColumnRole names the purpose a column was referenced for.
type ColumnRole string

const (
	RoleQuestion    ColumnRole = "question"
	RoleDemographic ColumnRole = "demographic"
	RoleWeight      ColumnRole = "weight"
)

// ColumnError reports an unknown column reference.
type ColumnError struct {
	Column string
	Role   ColumnRole
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s column %q not found", e.Role, e.Column)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// WeightError reports a weight cell that cannot be used for aggregation.
type WeightError struct {
	Column string
	Row    int
	Value  string
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("weight column %q row %d: %q is not a non-negative number", e.Column, e.Row, e.Value)
}

func (e *WeightError) Unwrap() error {
	return ErrInvalidWeight
}

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
)

// Value is a single survey cell: a string, a number or nothing.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// String creates a string value. Blank strings are treated as empty.
func String(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Number creates a numeric value. NaN is treated as empty.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// ValueOf converts a decoded scalar (JSON, SQL driver or spreadsheet cell) into a Value.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Empty()
	case Value:
		return t
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return String(strconv.FormatBool(t))
	case fmt.Stringer:
		return String(t.String())
	default:
		return String(fmt.Sprint(t))
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// String renders the value as an answer label. Numbers use the shortest exact decimal form.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric reading of the value. Strings are parsed.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Interface returns the value as a plain Go scalar (nil, string or float64).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

// Dataset is an ordered collection of respondent records sharing one header.
type Dataset struct {
	columns []string
	index   map[string]int
	records [][]Value
}

// NewDataset builds a dataset. Short records are padded with empty values so
// every record holds a value for every column.
func NewDataset(columns []string, records [][]Value) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	rows := make([][]Value, len(records))
	for i, r := range records {
		if len(r) > len(columns) {
			return nil, fmt.Errorf("record %d has %d values for %d columns", i, len(r), len(columns))
		}
		row := make([]Value, len(columns))
		copy(row, r)
		rows[i] = row
	}

	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
		records: rows,
	}, nil
}

// NewDatasetFromStrings builds a dataset from a header and string rows, as
// produced by CSV and spreadsheet readers.
func NewDatasetFromStrings(columns []string, rows [][]string) (*Dataset, error) {
	records := make([][]Value, len(rows))
	for i, row := range rows {
		rec := make([]Value, len(row))
		for j, cell := range row {
			rec[j] = String(cell)
		}
		records[i] = rec
	}
	return NewDataset(columns, records)
}

// NewDatasetFromMaps builds a dataset from JSON-style records. Column order
// follows the given columns, or first appearance when columns is empty.
func NewDatasetFromMaps(columns []string, records []map[string]interface{}) (*Dataset, error) {
	if len(columns) == 0 {
		seen := make(map[string]bool)
		for _, r := range records {
			for _, k := range sortedKeys(r) {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
	}

	rows := make([][]Value, len(records))
	for i, r := range records {
		row := make([]Value, len(columns))
		for j, c := range columns {
			row[j] = ValueOf(r[c])
		}
		rows[i] = row
	}
	return NewDataset(columns, rows)
}

func (d *Dataset) Len() int { return len(d.records) }

// Columns returns the column names in dataset order.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column resolves a column accessor by name.
func (d *Dataset) Column(name string, role ColumnRole) (Column, error) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, &ColumnError{Column: name, Role: role}
	}
	return Column{name: name, pos: i, ds: d}, nil
}

// Record returns a copy of record i.
func (d *Dataset) Record(i int) []Value {
	return append([]Value(nil), d.records[i]...)
}

// Maps returns the records as name→scalar maps.
func (d *Dataset) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, len(d.records))
	for i, r := range d.records {
		m := make(map[string]interface{}, len(d.columns))
		for j, c := range d.columns {
			m[c] = r[j].Interface()
		}
		out[i] = m
	}
	return out
}

// Filter returns a dataset holding the records for which keep returns true.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	var rows [][]Value
	for i, r := range d.records {
		if keep(i) {
			rows = append(rows, r)
		}
	}
	return &Dataset{columns: d.columns, index: d.index, records: rows}
}

// Column is a resolved, position-indexed accessor into a dataset column.
type Column struct {
	name string
	pos  int
	ds   *Dataset
}

func (c Column) Name() string { return c.name }

// Valid reports whether the accessor was resolved against a dataset.
func (c Column) Valid() bool { return c.ds != nil }

func (c Column) Value(i int) Value { return c.ds.records[i][c.pos] }

// Label returns the string form of record i's value.
func (c Column) Label(i int) string { return c.ds.records[i][c.pos].String() }

// Distinct returns the non-empty labels in first-seen order.
func (c Column) Distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range c.ds.records {
		v := c.Value(i)
		if v.IsEmpty() {
			continue
		}
		l := v.String()
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
