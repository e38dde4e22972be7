package crosstab

import (
	"errors"
	"testing"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleA(t *testing.T) *domain.Dataset {
	return newDataset(t, []string{"Group", "Q", "w"},
		[]string{"A", "Yes", "1"},
		[]string{"A", "No", "1"},
		[]string{"B", "Yes", "1"},
		[]string{"B", "No", "1"},
	)
}

// balanced yields proportions that are exact at 4 decimals.
func balanced(t *testing.T) *domain.Dataset {
	return newDataset(t, []string{"Group", "Q", "w"},
		[]string{"A", "Yes", "1"},
		[]string{"A", "No", "3"},
		[]string{"B", "Yes", "2"},
		[]string{"B", "Maybe", "2"},
		[]string{"B", "No", "1"},
		[]string{"C", "Yes", "1"},
		[]string{"C", "No", "1"},
		[]string{"C", "Maybe", "2"},
		[]string{"C", "", "5"},
	)
}

func cell(t *testing.T, tbl *domain.Table, row, col string) float64 {
	t.Helper()
	v, ok := tbl.Value(row, col)
	require.True(t, ok, "cell (%s, %s) not found", row, col)
	return v
}

func TestSingleChoiceColumn_ExampleA(t *testing.T) {
	// Given
	ds := exampleA(t)

	// When
	tbl, err := SingleChoiceColumn(ds, Request{Question: "Q", Column: "Group", Weight: "w"})

	// Then
	require.NoError(t, err)
	assert.Equal(t, "Q", tbl.Key)
	assert.Equal(t, []string{"Yes", "No", domain.GrandTotal}, tbl.Rows)
	assert.Equal(t, []string{"A", "B", domain.GrandTotal}, tbl.Columns)
	assert.Equal(t, 0.5, cell(t, tbl, "Yes", "A"))
	assert.Equal(t, 0.5, cell(t, tbl, "No", "A"))
	assert.Equal(t, 0.5, cell(t, tbl, "Yes", domain.GrandTotal))
	assert.Equal(t, 1.0, cell(t, tbl, domain.GrandTotal, "A"))
	assert.Equal(t, 1.0, cell(t, tbl, domain.GrandTotal, domain.GrandTotal))
}

func TestSingleChoiceColumn_ColumnsSumToOne(t *testing.T) {
	// Given
	ds := balanced(t)

	// When
	tbl, err := SingleChoiceColumn(ds, Request{Question: "Q", Column: "Group", Weight: "w"})
	require.NoError(t, err)

	// Then
	for _, d := range []string{"A", "B", "C"} {
		values, err := tbl.ColumnValues(d)
		require.NoError(t, err)

		var sum float64
		for i, v := range values {
			if tbl.Rows[i] == domain.GrandTotal {
				continue
			}
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 0.0001, "column %s", d)
	}
	assert.Equal(t, 0.25, cell(t, tbl, "Yes", "A"))
	assert.Equal(t, 0.4, cell(t, tbl, "Maybe", "B"))
	assert.Equal(t, 0.5, cell(t, tbl, "Maybe", "C"))
	// Yes: 4 of 13 answered weight.
	assert.Equal(t, 0.3077, cell(t, tbl, "Yes", domain.GrandTotal))
}

func TestSingleChoiceColumn_EmptyWeightExcluded(t *testing.T) {
	// Given
	ds := newDataset(t, []string{"Group", "Q", "w"},
		[]string{"A", "Yes", "1"},
		[]string{"A", "No", ""},
	)

	// When
	tbl, err := SingleChoiceColumn(ds, Request{Question: "Q", Column: "Group", Weight: "w"})

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"Yes", "No", domain.GrandTotal}, tbl.Rows)
	assert.Equal(t, 1.0, cell(t, tbl, "Yes", "A"))
	assert.Equal(t, 0.0, cell(t, tbl, "No", "A"))
}

func TestSingleChoiceColumn_Sequences(t *testing.T) {
	ds := exampleA(t)

	t.Run("explicit answer order is kept", func(t *testing.T) {
		tbl, err := SingleChoiceColumn(ds, Request{
			Question: "Q", Column: "Group", Weight: "w",
			RowSeq: []string{"No", "Yes", "No", " "},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"No", "Yes", domain.GrandTotal}, tbl.Rows)
	})

	t.Run("explicit demographic order is kept", func(t *testing.T) {
		tbl, err := SingleChoiceColumn(ds, Request{
			Question: "Q", Column: "Group", Weight: "w",
			ColumnSeq: []string{"B", "A", "Z"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A", "Z", domain.GrandTotal}, tbl.Columns)
		assert.Equal(t, 0.0, cell(t, tbl, "Yes", "Z"), "zero denominator yields 0")
		assert.Equal(t, 0.0, cell(t, tbl, domain.GrandTotal, "Z"))
	})

	t.Run("no demographic column", func(t *testing.T) {
		tbl, err := SingleChoiceColumn(ds, Request{Question: "Q", Weight: "w"})

		require.NoError(t, err)
		assert.Equal(t, []string{domain.GrandTotal}, tbl.Columns)
		assert.Equal(t, 0.5, cell(t, tbl, "No", domain.GrandTotal))
	})
}

func TestSingleChoiceColumn_Ordering(t *testing.T) {
	// Given
	ds := newDataset(t, []string{"Group", "Q", "w"},
		[]string{"A", "c", "1"},
		[]string{"A", "b", "1"},
		[]string{"B", "c", "1"},
		[]string{"B", "a", "1"},
	)

	t.Run("by grand total descending", func(t *testing.T) {
		tbl, err := SingleChoiceColumn(ds, Request{Question: "Q", Column: "Group", Weight: "w"})

		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a", domain.GrandTotal}, tbl.Rows)
	})

	t.Run("by name", func(t *testing.T) {
		tbl, err := SingleChoiceColumn(ds, Request{
			Question: "Q", Column: "Group", Weight: "w", NameSort: []string{"Q"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", domain.GrandTotal}, tbl.Rows)
		assert.Equal(t, 0.5, cell(t, tbl, "a", "B"))
	})
}

func TestSingleChoiceRow(t *testing.T) {
	t.Run("example A", func(t *testing.T) {
		tbl, err := SingleChoiceRow(exampleA(t), Request{Question: "Q", Column: "Group", Weight: "w"})

		require.NoError(t, err)
		assert.Equal(t, domain.OrientationRow, tbl.Orientation)
		assert.Equal(t, []string{"Yes", "No"}, tbl.Rows, "no grand total row")
		assert.Equal(t, 0.5, cell(t, tbl, "Yes", "A"))
		assert.Equal(t, 0.5, cell(t, tbl, "No", "B"))
	})

	t.Run("grand total column is one", func(t *testing.T) {
		tbl, err := SingleChoiceRow(balanced(t), Request{Question: "Q", Column: "Group", Weight: "w"})
		require.NoError(t, err)

		values, err := tbl.ColumnValues(domain.GrandTotal)
		require.NoError(t, err)
		for _, v := range values {
			assert.Equal(t, 1.0, v)
		}
		// No: 3 of 5.
		assert.Equal(t, 0.6, cell(t, tbl, "No", "A"))
		// Maybe: 2 of 4.
		assert.Equal(t, 0.5, cell(t, tbl, "Maybe", "C"))
	})

	t.Run("explicit answer order", func(t *testing.T) {
		tbl, err := SingleChoiceRow(exampleA(t), Request{
			Question: "Q", Column: "Group", Weight: "w", RowSeq: []string{"No", "Yes", "Unused"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"No", "Yes", "Unused"}, tbl.Rows)
		assert.Equal(t, 0.0, cell(t, tbl, "Unused", "A"))
		assert.Equal(t, 1.0, cell(t, tbl, "Unused", domain.GrandTotal))
	})
}

func TestSingleChoice_MissingColumn(t *testing.T) {
	ds := exampleA(t)

	tests := []struct {
		name string
		req  Request
		role domain.ColumnRole
	}{
		{name: "question", req: Request{Question: "Nope", Column: "Group", Weight: "w"}, role: domain.RoleQuestion},
		{name: "demographic", req: Request{Question: "Q", Column: "Nope", Weight: "w"}, role: domain.RoleDemographic},
		{name: "weight", req: Request{Question: "Q", Column: "Group", Weight: "Nope"}, role: domain.RoleWeight},
	}

	for _, tt := range tests {
		for _, build := range []BuilderFunc{SingleChoiceColumn, SingleChoiceRow, MultiChoiceColumn, MultiChoiceRow} {
			t.Run(tt.name, func(t *testing.T) {
				tbl, err := build(ds, tt.req)

				require.Error(t, err)
				assert.Nil(t, tbl)
				assert.True(t, errors.Is(err, domain.ErrMissingColumn))

				var cerr *domain.ColumnError
				require.True(t, errors.As(err, &cerr))
				assert.Equal(t, "Nope", cerr.Column)
				assert.Equal(t, tt.role, cerr.Role)
			})
		}
	}
}

func TestSingleChoice_Deterministic(t *testing.T) {
	ds := balanced(t)
	req := Request{Question: "Q", Column: "Group", Weight: "w"}

	for _, build := range []BuilderFunc{SingleChoiceColumn, SingleChoiceRow} {
		first, err := build(ds, req)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := build(ds, req)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestSingleChoice_SubgroupConsistency(t *testing.T) {
	// Given
	ds := balanced(t)
	group, err := ds.Column("Group", domain.RoleDemographic)
	require.NoError(t, err)

	full, err := SingleChoiceColumn(ds, Request{Question: "Q", Column: "Group", Weight: "w"})
	require.NoError(t, err)

	for _, d := range []string{"A", "B", "C"} {
		// When
		sub := ds.Filter(func(i int) bool { return group.Label(i) == d })
		restricted, err := SingleChoiceColumn(sub, Request{Question: "Q", Weight: "w"})
		require.NoError(t, err)

		// Then
		for _, row := range restricted.Rows {
			assert.Equal(t, cell(t, restricted, row, domain.GrandTotal), cell(t, full, row, d), "%s/%s", row, d)
		}
	}
}

func TestSelect(t *testing.T) {
	ds := exampleA(t)
	req := Request{Question: "Q", Column: "Group", Weight: "w"}

	tests := []struct {
		kind        domain.QuestionKind
		orientation domain.Orientation
	}{
		{domain.SingleChoice, domain.OrientationColumn},
		{domain.SingleChoice, domain.OrientationRow},
		{domain.MultiChoice, domain.OrientationColumn},
		{domain.MultiChoice, domain.OrientationRow},
	}

	for _, tt := range tests {
		tbl, err := Select(tt.kind, tt.orientation)(ds, req)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, tbl.Kind)
		assert.Equal(t, tt.orientation, tbl.Orientation)
	}
}

func TestSingleChoice_SequencesIgnoreGrandTotal(t *testing.T) {
	// Given
	req := Request{
		Question: "Q", Column: "Group", Weight: "w",
		RowSeq:    []string{"Yes", domain.GrandTotal, "No"},
		ColumnSeq: []string{domain.GrandTotal, "B", "A"},
	}

	// When
	colTable, err := SingleChoiceColumn(exampleA(t), req)
	require.NoError(t, err)
	rowTable, err := SingleChoiceRow(exampleA(t), req)
	require.NoError(t, err)

	// Then
	assert.Equal(t, []string{"Yes", "No", domain.GrandTotal}, colTable.Rows)
	assert.Equal(t, []string{"B", "A", domain.GrandTotal}, colTable.Columns)
	assert.Equal(t, []string{"Yes", "No"}, rowTable.Rows)
	assert.Equal(t, []string{"B", "A", domain.GrandTotal}, rowTable.Columns)
}
