package commands

import (
	"bytes"
	"fmt"

	"github.com/de-tools/crossart/pkg/services/config"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/de-tools/crossart/pkg/store/blob"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type GenerateCmd struct {
	jobPath     string
	output      string
	charts      bool
	parallelism int
	source      sourceFlags

	resolver  source.Resolver
	crosstabs crosstab.Service
	blobs     blob.Registry
}

func NewGenerateCmd(resolver source.Resolver, crosstabs crosstab.Service, blobs blob.Registry) *cobra.Command {
	gc := &GenerateCmd{resolver: resolver, crosstabs: crosstabs, blobs: blobs}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a crosstab workbook from a survey",
		RunE:  gc.run,
	}

	cmd.Flags().StringVarP(&gc.jobPath, "job", "j", "", "Path to the job file (YAML, JSON or TOML)")
	cmd.Flags().StringVarP(&gc.output, "output", "o", "crosstabs.xlsx", "Workbook destination: local path, s3:// or az:// URI")
	cmd.Flags().BoolVar(&gc.charts, "charts", false, "Draw a bar chart next to every table")
	cmd.Flags().IntVar(&gc.parallelism, "parallelism", 0, "Sheets computed concurrently (0 uses the job setting)")
	gc.source.bind(cmd)

	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	job, err := config.LoadJob(gc.jobPath)
	if err != nil {
		return err
	}
	if gc.charts {
		job.Charts = true
	}
	if gc.parallelism > 0 {
		job.Parallelism = gc.parallelism
	}

	ds, err := gc.resolver.Load(ctx, gc.source.request())
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}

	var buf bytes.Buffer
	placed, err := gc.crosstabs.Workbook(ctx, ds, *job, &buf)
	if err != nil {
		return err
	}
	if err := gc.blobs.Put(ctx, gc.output, &buf); err != nil {
		return err
	}

	logger.Info().
		Int("tables", len(placed)).
		Str("output", gc.output).
		Msg("crosstab workbook written")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tables to %s\n", len(placed), gc.output)
	return nil
}
