// Package demography picks and orders the demographic columns of a survey.
package demography

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Keywords identify demographic columns by name.
var Keywords = []string{"age", "gender", "eth", "income", "urban"}

var (
	keywordPattern = regexp.MustCompile(`(?i)` + strings.Join(Keywords, "|"))

	agePattern    = regexp.MustCompile(`(?i)age`)
	genderPattern = regexp.MustCompile(`(?i)gender`)
	ethPattern    = regexp.MustCompile(`(?i)eth`)
	incomePattern = regexp.MustCompile(`(?i)income`)
	urbanPattern  = regexp.MustCompile(`(?i)urban`)
)

// Detect returns the columns whose name contains a demographic keyword and
// has at most two words.
func Detect(columns []string) []string {
	var out []string
	for _, c := range columns {
		if keywordPattern.MatchString(c) && len(strings.Fields(c)) <= 2 {
			out = append(out, c)
		}
	}
	return out
}

// Search returns the columns whose name contains key. Matching is case sensitive.
func Search(columns []string, key string) []string {
	var out []string
	for _, c := range columns {
		if strings.Contains(c, key) {
			out = append(out, c)
		}
	}
	return out
}

// SortValues orders the values of a known demographic column. It reports
// false and returns the values unchanged when column is not recognised.
func SortValues(column string, values []string) ([]string, bool) {
	out := append([]string(nil), values...)

	var rank func(string) int
	switch {
	case agePattern.MatchString(column), incomePattern.MatchString(column):
		sort.SliceStable(out, func(a, b int) bool { return naturalLess(out[a], out[b]) })
		return out, true
	case genderPattern.MatchString(column):
		rank = prefixRank([]string{"M", "L"}, []string{"F", "P"})
	case ethPattern.MatchString(column):
		rank = prefixRank([]string{"M"}, []string{"C"}, []string{"I"}, []string{"B"}, []string{"O", "L"})
	case urbanPattern.MatchString(column):
		rank = prefixRank([]string{"U", "B"}, []string{"S"}, []string{"R", "L"})
	default:
		return out, false
	}

	sort.SliceStable(out, func(a, b int) bool { return rank(out[a]) < rank(out[b]) })
	return out, true
}

// Sequence is SortValues shaped as a crosstab sequencer: nil for unknown columns.
func Sequence(column string, values []string) []string {
	out, ok := SortValues(column, values)
	if !ok {
		return nil
	}
	return out
}

// prefixRank ranks a value by the first group holding one of its prefixes,
// case-insensitively. Values matching no group rank last.
func prefixRank(groups ...[]string) func(string) int {
	return func(v string) int {
		upper := strings.ToUpper(v)
		for i, prefixes := range groups {
			for _, p := range prefixes {
				if strings.HasPrefix(upper, p) {
					return i
				}
			}
		}
		return len(groups)
	}
}

// naturalLess compares by leading number when both values start with one
// ("18-24" before "100+"), else lexicographically.
func naturalLess(a, b string) bool {
	na, okA := leadingNumber(a)
	nb, okB := leadingNumber(b)
	if okA && okB && na != nb {
		return na < nb
	}
	return a < b
}

func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
