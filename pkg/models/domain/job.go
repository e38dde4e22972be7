package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidJob is returned when a crosstab job is incomplete or inconsistent.
var ErrInvalidJob = errors.New("invalid job")

// Values accepted for Job.Orientation.
const (
	ShowColumn = "column"
	ShowRow    = "row"
	ShowBoth   = "both"
)

// Job describes one crosstab generation run over a dataset.
type Job struct {
	Weight       string   `mapstructure:"weight" json:"weight"`
	Demographics []string `mapstructure:"demographics" json:"demos"`

	// Questions lists question columns explicitly. When empty, the columns
	// from FirstQuestion to LastQuestion (inclusive) are used.
	Questions     []string `mapstructure:"questions" json:"q_ls"`
	FirstQuestion string   `mapstructure:"first_question" json:"first_question,omitempty"`
	LastQuestion  string   `mapstructure:"last_question" json:"last_question,omitempty"`

	Multi    []string `mapstructure:"multi" json:"multi"`
	NameSort []string `mapstructure:"name_sort" json:"name_sort"`

	// Sequences holds the explicit value order per demographic column.
	Sequences map[string][]string `mapstructure:"-" json:"col_seqs"`
	// AnswerOrders holds the explicit answer order per single-choice question.
	AnswerOrders map[string][]string `mapstructure:"-" json:"answer_orders,omitempty"`

	Orientation string `mapstructure:"orientation" json:"wise"`
	Parallelism int    `mapstructure:"parallelism" json:"parallelism,omitempty"`
	Charts      bool   `mapstructure:"charts" json:"charts,omitempty"`
}

// Orientations expands the Orientation setting, defaulting to both.
func (j Job) Orientations() ([]Orientation, error) {
	switch j.Orientation {
	case ShowColumn, "% of Column Total":
		return []Orientation{OrientationColumn}, nil
	case ShowRow, "% of Row Total":
		return []Orientation{OrientationRow}, nil
	case ShowBoth, "Both", "":
		return []Orientation{OrientationColumn, OrientationRow}, nil
	default:
		return nil, fmt.Errorf("%w: unknown orientation %q", ErrInvalidJob, j.Orientation)
	}
}

// IsMulti reports whether question q is a multi-select question.
func (j Job) IsMulti(q string) bool {
	return contains(j.Multi, q)
}

// ResolveQuestions returns the question list, expanding the first/last range
// against the dataset column order when no explicit list is given.
func (j Job) ResolveQuestions(columns []string) ([]string, error) {
	if len(j.Questions) > 0 {
		return j.Questions, nil
	}
	if j.FirstQuestion == "" || j.LastQuestion == "" {
		return nil, fmt.Errorf("%w: no questions selected", ErrInvalidJob)
	}

	first, last := indexOf(columns, j.FirstQuestion), indexOf(columns, j.LastQuestion)
	if first < 0 {
		return nil, &ColumnError{Column: j.FirstQuestion, Role: RoleQuestion}
	}
	if last < 0 {
		return nil, &ColumnError{Column: j.LastQuestion, Role: RoleQuestion}
	}
	if last < first {
		return nil, fmt.Errorf("%w: last question %q precedes first question %q", ErrInvalidJob, j.LastQuestion, j.FirstQuestion)
	}
	return append([]string(nil), columns[first:last+1]...), nil
}

// Validate checks the settings that do not depend on a dataset.
func (j Job) Validate() error {
	if j.Weight == "" {
		return fmt.Errorf("%w: weight column is required", ErrInvalidJob)
	}
	if len(j.Demographics) == 0 {
		return fmt.Errorf("%w: at least one demographic is required", ErrInvalidJob)
	}
	if len(j.Questions) == 0 && (j.FirstQuestion == "" || j.LastQuestion == "") {
		return fmt.Errorf("%w: no questions selected", ErrInvalidJob)
	}
	if j.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative", ErrInvalidJob)
	}
	_, err := j.Orientations()
	return err
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}
