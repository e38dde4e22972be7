package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/crossart/pkg/server"
	crosstab "github.com/de-tools/crossart/pkg/services/crosstab"
	"github.com/de-tools/crossart/pkg/services/demography"
	"github.com/de-tools/crossart/pkg/store/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	parallelism     int
	shutdownTimeout time.Duration
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for crossart",
		RunE:  runServer,
	}

	rootCmd.Flags().IntVar(&parallelism, "parallelism", 0,
		"Default number of sheets computed concurrently per request (0 uses the number of CPUs)")
	rootCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second,
		"Time allowed for in-flight requests on shutdown")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	generator := crosstab.NewGenerator(
		crosstab.WithSequencer(demography.Sequence),
		crosstab.WithParallelism(parallelism),
	)

	api := server.NewWebAPI(server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: shutdownTimeout,
		Dependencies: server.Dependencies{
			Crosstabs: crosstab.NewService(generator),
			Reader:    file.NewReader(),
			Logger:    logger,
		},
	})

	return api.Start()
}
