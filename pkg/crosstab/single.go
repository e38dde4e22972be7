package crosstab

import (
	"github.com/de-tools/crossart/pkg/models/domain"
)

// singleTally holds the weighted sums of one grouped pass over a single-choice question.
type singleTally struct {
	cell     map[string]map[string]float64 // demographic -> answer -> weight
	answered map[string]float64            // demographic -> weight of non-empty answers
	answer   map[string]float64            // answer -> weight over the whole dataset
	total    float64                       // weight of all non-empty answers
	present  map[string]bool               // demographic has at least one non-empty answer
}

func tallySingle(r *resolved) *singleTally {
	t := &singleTally{
		cell:     make(map[string]map[string]float64),
		answered: make(map[string]float64),
		answer:   make(map[string]float64),
		present:  make(map[string]bool),
	}

	for i := 0; i < r.n; i++ {
		v := r.question.Value(i)
		if v.IsEmpty() {
			continue
		}
		a, d := v.String(), r.group(i)
		if d != "" {
			t.present[d] = true
		}

		w, ok := r.weights.Weight(i)
		if !ok {
			continue
		}
		t.answer[a] += w
		t.total += w
		if d == "" {
			continue
		}
		if t.cell[d] == nil {
			t.cell[d] = make(map[string]float64)
		}
		t.cell[d][a] += w
		t.answered[d] += w
	}
	return t
}

func singleAnswerAxis(r *resolved, req Request) ([]string, bool) {
	if len(req.RowSeq) > 0 {
		return cleanLabels(req.RowSeq), true
	}
	return r.frequencyAxis(), false
}

// SingleChoiceColumn builds a single-choice table whose demographic columns
// each sum to 1 over the answer rows. A trailing Grand Total row flags which
// demographics answered the question at all.
func SingleChoiceColumn(ds *domain.Dataset, req Request) (*domain.Table, error) {
	r, err := resolve(ds, req)
	if err != nil {
		return nil, err
	}

	answers, explicit := singleAnswerAxis(r, req)
	rows := append(answers, domain.GrandTotal)
	cols := r.demographicAxis(req.ColumnSeq, false)
	tally := tallySingle(r)

	cells := newGrid(len(rows), len(cols))
	for ri, a := range rows {
		for ci, d := range cols {
			switch {
			case a == domain.GrandTotal:
				if d == domain.GrandTotal || tally.present[d] {
					cells[ri][ci] = 1
				}
			case d == domain.GrandTotal:
				cells[ri][ci] = Round4(Ratio(tally.answer[a], tally.total))
			default:
				cells[ri][ci] = Round4(Ratio(tally.cell[d][a], tally.answered[d]))
			}
		}
	}

	t := &domain.Table{
		Key:         req.Question,
		Demographic: req.Column,
		Kind:        domain.SingleChoice,
		Orientation: domain.OrientationColumn,
		Rows:        rows,
		Columns:     cols,
		Cells:       cells,
	}
	if explicit {
		return t, nil
	}
	return SortRows(t, req.NameSort), nil
}

// SingleChoiceRow builds a single-choice table where each cell is the share of
// an answer's total weight contributed by a demographic. The Grand Total
// column is always 1 and no Grand Total row is produced.
func SingleChoiceRow(ds *domain.Dataset, req Request) (*domain.Table, error) {
	r, err := resolve(ds, req)
	if err != nil {
		return nil, err
	}

	rows, explicit := singleAnswerAxis(r, req)
	cols := r.demographicAxis(req.ColumnSeq, false)
	tally := tallySingle(r)

	cells := newGrid(len(rows), len(cols))
	for ri, a := range rows {
		for ci, d := range cols {
			if d == domain.GrandTotal {
				cells[ri][ci] = 1
				continue
			}
			cells[ri][ci] = Round4(Ratio(tally.cell[d][a], tally.answer[a]))
		}
	}

	t := &domain.Table{
		Key:         req.Question,
		Demographic: req.Column,
		Kind:        domain.SingleChoice,
		Orientation: domain.OrientationRow,
		Rows:        rows,
		Columns:     cols,
		Cells:       cells,
	}
	if explicit {
		return t, nil
	}
	return SortRows(t, req.NameSort), nil
}
