package config

import (
	"fmt"
	"strings"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides of job settings, e.g. CROSSART_WEIGHT.
const EnvPrefix = "CROSSART"

// Ordering fixes the value order of one column. Job files use a list of
// orderings instead of a map because configuration keys are case-insensitive
// while column names are not.
type Ordering struct {
	Column string   `mapstructure:"column"`
	Values []string `mapstructure:"values"`
}

type jobFile struct {
	domain.Job   `mapstructure:",squash"`
	Sequences    []Ordering `mapstructure:"sequences"`
	AnswerOrders []Ordering `mapstructure:"answer_orders"`
}

// LoadJob reads a job definition (YAML, JSON or TOML, by extension).
// Scalar settings can be overridden from the environment.
func LoadJob(path string) (*domain.Job, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"weight", "orientation", "parallelism", "charts", "first_question", "last_question"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var f jobFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	job := f.Job
	job.Sequences = orderings(f.Sequences)
	job.AnswerOrders = orderings(f.AnswerOrders)
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func orderings(list []Ordering) map[string][]string {
	if len(list) == 0 {
		return nil
	}
	out := make(map[string][]string, len(list))
	for _, o := range list {
		out[o.Column] = o.Values
	}
	return out
}
