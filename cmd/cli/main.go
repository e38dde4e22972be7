package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/de-tools/crossart/pkg/runtime/terminal"
	"github.com/de-tools/crossart/pkg/services/config"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/demography"
	"github.com/de-tools/crossart/pkg/services/source"
	"github.com/de-tools/crossart/pkg/store/blob"
	"github.com/de-tools/crossart/pkg/store/file"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	// Warehouse profiles are optional; file inputs work without them.
	var profiles config.Registry
	if usr, err := user.Current(); err == nil {
		cfgPath := filepath.Join(usr.HomeDir, ".databrickscfg")
		if registry, err := config.NewRegistry(cfgPath); err == nil {
			profiles = registry
		} else {
			logger.Debug().Err(err).Str("path", cfgPath).Msg("no warehouse profiles loaded")
		}
	}

	blobs := blob.NewDefaultRegistry(os.Getenv("AWS_PROFILE"))
	cli := terminal.NewCLI(terminal.Options{
		Resolver:  source.NewResolver(blobs, file.NewReader(), profiles),
		Crosstabs: crosstab.NewService(crosstab.NewGenerator(crosstab.WithSequencer(demography.Sequence))),
		Blobs:     blobs,
		Output:    os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
