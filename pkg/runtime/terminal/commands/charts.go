package commands

import (
	"bytes"
	"fmt"

	"github.com/de-tools/crossart/pkg/export/xlsx"
	"github.com/de-tools/crossart/pkg/store/blob"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ChartsCmd struct {
	input  string
	output string
	blobs  blob.Registry
}

func NewChartsCmd(blobs blob.Registry) *cobra.Command {
	cc := &ChartsCmd{blobs: blobs}
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Add bar charts to an existing crosstab workbook",
		RunE:  cc.run,
	}

	cmd.Flags().StringVarP(&cc.input, "input", "i", "", "Crosstab workbook: local path, s3:// or az:// URI")
	cmd.Flags().StringVarP(&cc.output, "output", "o", "charts.xlsx", "Destination of the charted workbook")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (cc *ChartsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	rc, _, err := cc.blobs.Open(ctx, cc.input)
	if err != nil {
		return err
	}
	defer rc.Close()

	sheets, err := xlsx.ReadTables(rc)
	if err != nil {
		return fmt.Errorf("failed to read crosstabs: %w", err)
	}

	var buf bytes.Buffer
	if err := xlsx.DrawCharts(ctx, sheets, &buf); err != nil {
		return fmt.Errorf("failed to draw charts: %w", err)
	}
	if err := cc.blobs.Put(ctx, cc.output, &buf); err != nil {
		return err
	}

	logger.Info().
		Int("sheets", len(sheets)).
		Str("output", cc.output).
		Msg("charted workbook written")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sheets to %s\n", len(sheets), cc.output)
	return nil
}
