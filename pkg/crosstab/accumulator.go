package crosstab

import (
	"math"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// Predicate selects records by index.
type Predicate func(i int) bool

// WeightAccumulator sums a weight column over the records selected by a predicate.
// Records with an empty weight are excluded, never counted as zero.
type WeightAccumulator struct {
	column  string
	weights []float64
	present []bool
}

// NewWeightAccumulator resolves and validates the weight column once.
func NewWeightAccumulator(ds *domain.Dataset, weight string) (*WeightAccumulator, error) {
	col, err := ds.Column(weight, domain.RoleWeight)
	if err != nil {
		return nil, err
	}

	n := ds.Len()
	acc := &WeightAccumulator{
		column:  weight,
		weights: make([]float64, n),
		present: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		v := col.Value(i)
		if v.IsEmpty() {
			continue
		}
		w, ok := v.Float()
		if !ok || w < 0 || math.IsInf(w, 0) || math.IsNaN(w) {
			return nil, &domain.WeightError{Column: weight, Row: i, Value: v.String()}
		}
		acc.weights[i] = w
		acc.present[i] = true
	}
	return acc, nil
}

func (a *WeightAccumulator) Column() string { return a.column }

// Weight returns the weight of record i and whether it is present.
func (a *WeightAccumulator) Weight(i int) (float64, bool) {
	return a.weights[i], a.present[i]
}

// Sum returns the weighted sum over matching records with a present weight.
func (a *WeightAccumulator) Sum(match Predicate) float64 {
	var total float64
	for i, ok := range a.present {
		if ok && (match == nil || match(i)) {
			total += a.weights[i]
		}
	}
	return total
}

// NonEmpty matches records whose value in col is not empty.
func NonEmpty(col domain.Column) Predicate {
	return func(i int) bool { return !col.Value(i).IsEmpty() }
}

// Equals matches records whose value in col renders as label.
func Equals(col domain.Column, label string) Predicate {
	return func(i int) bool {
		v := col.Value(i)
		return !v.IsEmpty() && v.String() == label
	}
}

// And matches records accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(i int) bool {
		for _, p := range preds {
			if !p(i) {
				return false
			}
		}
		return true
	}
}

// Ratio divides num by den, yielding 0 for a zero denominator.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Round4 rounds to 4 decimal places, halves away from zero.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
