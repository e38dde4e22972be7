package terminal

import (
	"context"
	"io"
	"os"

	"github.com/de-tools/crossart/pkg/runtime/terminal/commands"
	"github.com/de-tools/crossart/pkg/runtime/terminal/export"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/de-tools/crossart/pkg/store/blob"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	resolver   source.Resolver
	crosstabs  crosstab.Service
	blobs      blob.Registry
	reporter   *export.Reporter
	demography *export.DemographyReporter
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Resolver  source.Resolver
	Crosstabs crosstab.Service
	Blobs     blob.Registry
	Output    io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		resolver:   opts.Resolver,
		crosstabs:  opts.Crosstabs,
		blobs:      opts.Blobs,
		reporter:   export.NewReporter(opts.Output),
		demography: export.NewDemographyReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the command-line arguments, mainly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crossart",
		Short:         "Weighted survey crosstab generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(commands.NewGenerateCmd(cli.resolver, cli.crosstabs, cli.blobs))
	cmd.AddCommand(commands.NewTablesCmd(cli.resolver, cli.crosstabs, cli.reporter))
	cmd.AddCommand(commands.NewDemographyCmd(cli.resolver, cli.demography))
	cmd.AddCommand(commands.NewChartsCmd(cli.blobs))

	return cmd
}
