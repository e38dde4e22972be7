package crosstab

import (
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
)

// AnswerSeparator delimits the options of a multi-select answer.
const AnswerSeparator = ", "

// SplitAnswers returns the distinct trimmed options of a multi-select answer,
// in the order they were written.
func SplitAnswers(v domain.Value) []string {
	if v.IsEmpty() {
		return nil
	}

	parts := strings.Split(v.String(), AnswerSeparator)
	tokens := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		tokens = append(tokens, p)
	}
	return tokens
}
