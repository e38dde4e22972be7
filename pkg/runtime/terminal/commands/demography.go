package commands

import (
	"fmt"

	"github.com/de-tools/crossart/pkg/models/domain"
	"github.com/de-tools/crossart/pkg/runtime/terminal/export"
	"github.com/de-tools/crossart/pkg/services/demography"
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/spf13/cobra"
)

type DemographyCmd struct {
	source sourceFlags
	search string

	resolver source.Resolver
	reporter *export.DemographyReporter
}

func NewDemographyCmd(resolver source.Resolver, reporter *export.DemographyReporter) *cobra.Command {
	dc := &DemographyCmd{resolver: resolver, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "demography",
		Short: "Detect and order the demographic columns of a survey",
		RunE:  dc.run,
	}

	cmd.Flags().StringVar(&dc.search, "search", "", "List the columns containing this text instead of detected demographics")
	dc.source.bind(cmd)

	return cmd
}

func (dc *DemographyCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ds, err := dc.resolver.Load(ctx, dc.source.request())
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}

	names := demography.Detect(ds.Columns())
	if dc.search != "" {
		names = demography.Search(ds.Columns(), dc.search)
	}

	report := &export.DemographyReport{
		Source:  dc.source.input,
		Columns: ds.Columns(),
	}
	if report.Source == "" {
		report.Source = dc.source.profile
	}
	for _, name := range names {
		col, err := ds.Column(name, domain.RoleDemographic)
		if err != nil {
			return err
		}
		values, _ := demography.SortValues(name, col.Distinct())
		report.Demographics = append(report.Demographics, export.Demographic{Name: name, Values: values})
	}
	return dc.reporter.Handle(report)
}
