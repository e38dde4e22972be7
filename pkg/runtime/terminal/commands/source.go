package commands

import (
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/spf13/cobra"
)

// sourceFlags select the survey dataset of a command.
type sourceFlags struct {
	input   string
	profile string
	query   string
}

func (sf *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sf.input, "input", "i", "", "Survey file: local path, s3://bucket/key or az://account/container/blob")
	cmd.Flags().StringVar(&sf.profile, "profile", "", "Warehouse profile to run --query against")
	cmd.Flags().StringVar(&sf.query, "query", "", "SQL query returning one survey response per row")

	cmd.MarkFlagsOneRequired("input", "query")
	cmd.MarkFlagsMutuallyExclusive("input", "query")
	cmd.MarkFlagsRequiredTogether("query", "profile")
}

func (sf *sourceFlags) request() source.Request {
	return source.Request{
		Input:   sf.input,
		Profile: sf.profile,
		Query:   sf.query,
	}
}
