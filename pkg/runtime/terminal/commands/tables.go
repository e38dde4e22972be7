package commands

import (
	"fmt"

	"github.com/de-tools/crossart/pkg/runtime/terminal/export"
	"github.com/de-tools/crossart/pkg/services/config"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/spf13/cobra"
)

type TablesCmd struct {
	jobPath string
	source  sourceFlags

	resolver  source.Resolver
	crosstabs crosstab.Service
	reporter  *export.Reporter
}

func NewTablesCmd(resolver source.Resolver, crosstabs crosstab.Service, reporter *export.Reporter) *cobra.Command {
	tc := &TablesCmd{resolver: resolver, crosstabs: crosstabs, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Print the crosstabs of a survey",
		RunE:  tc.run,
	}

	cmd.Flags().StringVarP(&tc.jobPath, "job", "j", "", "Path to the job file (YAML, JSON or TOML)")
	tc.source.bind(cmd)

	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func (tc *TablesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	job, err := config.LoadJob(tc.jobPath)
	if err != nil {
		return err
	}
	ds, err := tc.resolver.Load(ctx, tc.source.request())
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}

	placed, err := tc.crosstabs.Tables(ctx, ds, *job)
	if err != nil {
		return err
	}
	return tc.reporter.Handle(placed)
}
