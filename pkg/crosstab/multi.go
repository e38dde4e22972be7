package crosstab

import (
	"sort"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// multiTally holds per-token weighted sums for every demographic plus the
// whole dataset, keyed by domain.GrandTotal.
type multiTally struct {
	tokens []string                      // first-seen order
	sums   map[string]map[string]float64 // demographic -> token -> weight
	denom  map[string]float64            // demographic -> weight of non-empty answers
}

func tallyMulti(r *resolved) *multiTally {
	t := &multiTally{
		sums:  map[string]map[string]float64{domain.GrandTotal: {}},
		denom: make(map[string]float64),
	}
	seen := make(map[string]bool)

	for i := 0; i < r.n; i++ {
		tokens := SplitAnswers(r.question.Value(i))
		if len(tokens) == 0 {
			continue
		}
		// Only weighted selections put a token on the answer axis.
		w, ok := r.weights.Weight(i)
		if !ok {
			continue
		}
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				t.tokens = append(t.tokens, tok)
			}
		}

		groups := []string{domain.GrandTotal}
		if d := r.group(i); d != "" {
			groups = append(groups, d)
		}
		for _, g := range groups {
			t.denom[g] += w
			if t.sums[g] == nil {
				t.sums[g] = make(map[string]float64)
			}
			for _, tok := range tokens {
				t.sums[g][tok] += w
			}
		}
	}
	return t
}

func buildMulti(ds *domain.Dataset, req Request, orientation domain.Orientation) (*domain.Table, error) {
	r, err := resolve(ds, req)
	if err != nil {
		return nil, err
	}

	tally := tallyMulti(r)
	rows := tally.tokens
	cols := r.demographicAxis(req.ColumnSeq, true)
	overall := tally.sums[domain.GrandTotal]

	cells := newGrid(len(rows), len(cols))
	for ci, d := range cols {
		sums := tally.sums[d]
		for ri, tok := range rows {
			switch orientation {
			case domain.OrientationRow:
				cells[ri][ci] = Round4(Ratio(sums[tok], overall[tok]))
			default:
				cells[ri][ci] = Round4(Ratio(sums[tok], tally.denom[d]))
			}
		}
	}
	rows, cells = orderByGrandTotal(rows, cells)

	return &domain.Table{
		Key:         req.Question,
		Demographic: req.Column,
		Kind:        domain.MultiChoice,
		Orientation: orientation,
		Rows:        rows,
		Columns:     cols,
		Cells:       cells,
	}, nil
}

// orderByGrandTotal sorts rows by their rounded Grand Total cell, descending.
// Equal values keep first-seen token order. Row tables have 1 in every
// non-zero Grand Total cell, so they stay in first-seen order.
func orderByGrandTotal(rows []string, cells [][]float64) ([]string, [][]float64) {
	gt := func(i int) float64 {
		row := cells[i]
		return row[len(row)-1]
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return gt(order[a]) > gt(order[b])
	})

	sortedRows := make([]string, len(rows))
	sortedCells := make([][]float64, len(rows))
	for i, src := range order {
		sortedRows[i] = rows[src]
		sortedCells[i] = cells[src]
	}
	return sortedRows, sortedCells
}

// MultiChoiceColumn builds a multi-choice table where each cell is the
// weighted share of a demographic's respondents that selected the option.
// Columns need not sum to 1.
func MultiChoiceColumn(ds *domain.Dataset, req Request) (*domain.Table, error) {
	return buildMulti(ds, req, domain.OrientationColumn)
}

// MultiChoiceRow builds a multi-choice table where each cell is the share of
// an option's total weight contributed by a demographic.
func MultiChoiceRow(ds *domain.Dataset, req Request) (*domain.Table, error) {
	return buildMulti(ds, req, domain.OrientationRow)
}
