package crosstab

import (
	"sort"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// SortRows returns a copy of t with its answer rows reordered. Tables whose key
// is listed in nameSort are ordered by label, all others by their Grand Total
// value descending. A trailing Grand Total row stays last.
func SortRows(t *domain.Table, nameSort []string) *domain.Table {
	out := t.Clone()

	n := len(out.Rows)
	if n > 0 && out.Rows[n-1] == domain.GrandTotal {
		n--
	}

	byName := false
	for _, k := range nameSort {
		if k == t.Key {
			byName = true
			break
		}
	}
	gt := -1
	for i, c := range out.Columns {
		if c == domain.GrandTotal {
			gt = i
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		if byName {
			return out.Rows[ra] < out.Rows[rb]
		}
		if gt < 0 {
			return false
		}
		return out.Cells[ra][gt] > out.Cells[rb][gt]
	})

	rows := make([]string, n)
	cells := make([][]float64, n)
	for i, src := range order {
		rows[i] = out.Rows[src]
		cells[i] = out.Cells[src]
	}
	copy(out.Rows, rows)
	copy(out.Cells, cells)
	return out
}
