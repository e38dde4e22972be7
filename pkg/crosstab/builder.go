// Package crosstab computes weighted survey cross-tabulations.
//
// Four builders cover the combinations of question kind (single or multi
// select) and orientation (proportions of the demographic column total or of
// the answer row total). All builders are pure: they read the dataset, never
// mutate it, and return a fresh table.
package crosstab

import (
	"sort"
	"strconv"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// Request carries the per-table selections.
type Request struct {
	// Question is the column holding the answers.
	Question string
	// Column is the demographic column. Empty builds the Grand Total column only.
	Column string
	// Weight is the column holding respondent weights.
	Weight string
	// RowSeq fixes the answer order of single-choice tables.
	RowSeq []string
	// ColumnSeq fixes the demographic value order.
	ColumnSeq []string
	// NameSort lists questions whose answers are ordered by label instead of by weight.
	NameSort []string
}

// BuilderFunc builds one crosstab table.
type BuilderFunc func(ds *domain.Dataset, req Request) (*domain.Table, error)

// Select returns the builder for a question kind and orientation.
func Select(kind domain.QuestionKind, orientation domain.Orientation) BuilderFunc {
	switch {
	case kind == domain.MultiChoice && orientation == domain.OrientationRow:
		return MultiChoiceRow
	case kind == domain.MultiChoice:
		return MultiChoiceColumn
	case orientation == domain.OrientationRow:
		return SingleChoiceRow
	default:
		return SingleChoiceColumn
	}
}

type resolved struct {
	question domain.Column
	demo     domain.Column
	weights  *WeightAccumulator
	n        int
}

func resolve(ds *domain.Dataset, req Request) (*resolved, error) {
	q, err := ds.Column(req.Question, domain.RoleQuestion)
	if err != nil {
		return nil, err
	}

	var demo domain.Column
	if req.Column != "" {
		demo, err = ds.Column(req.Column, domain.RoleDemographic)
		if err != nil {
			return nil, err
		}
	}

	acc, err := NewWeightAccumulator(ds, req.Weight)
	if err != nil {
		return nil, err
	}

	return &resolved{question: q, demo: demo, weights: acc, n: ds.Len()}, nil
}

// group returns the demographic label of record i, or "" when the record has
// none or no demographic column was requested.
func (r *resolved) group(i int) string {
	if !r.demo.Valid() {
		return ""
	}
	return r.demo.Label(i)
}

func (r *resolved) inGroup(d string) Predicate {
	return func(i int) bool { return r.group(i) == d }
}

// frequencyAxis orders the non-empty answers by descending raw count.
// Ties keep first-seen order.
func (r *resolved) frequencyAxis() []string {
	counts := make(map[string]int)
	var order []string
	for i := 0; i < r.n; i++ {
		v := r.question.Value(i)
		if v.IsEmpty() {
			continue
		}
		a := v.String()
		if _, ok := counts[a]; !ok {
			order = append(order, a)
		}
		counts[a]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	return order
}

// demographicAxis returns the demographic labels followed by Grand Total.
func (r *resolved) demographicAxis(seq []string, ascending bool) []string {
	var labels []string
	switch {
	case len(seq) > 0:
		labels = cleanLabels(seq)
	case r.demo.Valid():
		labels = r.demo.Distinct()
		if ascending {
			sort.SliceStable(labels, func(a, b int) bool { return lessLabel(labels[a], labels[b]) })
		}
	}
	return append(labels, domain.GrandTotal)
}

// cleanLabels drops blank, repeated and Grand Total labels from an explicit
// order. Builders append Grand Total themselves.
func cleanLabels(seq []string) []string {
	seen := make(map[string]bool, len(seq))
	out := make([]string, 0, len(seq))
	for _, s := range seq {
		if domain.String(s).IsEmpty() || seen[s] || s == domain.GrandTotal {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// lessLabel compares numerically when both labels are numbers.
func lessLabel(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

func newGrid(rows, cols int) [][]float64 {
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
	}
	return grid
}
