// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// linkprobe builds every variant of the linkage fixture under test/linkage,
// checks how the collaborator libraries were linked and compares what the
// executables print.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/uber/linkprobe/internal/config"
	"github.com/uber/linkprobe/internal/logging"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	rootDir    string
	outDir     string

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:          "linkprobe",
	Short:        "Verify shared, static and system library linkage of the fixture",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = logging.New(verbose); err != nil {
			return err
		}

		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if rootDir != "" {
			cfg.Root = rootDir
		}
		if outDir != "" {
			cfg.Out = outDir
		}
		logger.Debug("loaded config", zap.String("root", cfg.Root), zap.String("out", cfg.Out))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every build step")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "module root holding test/linkage")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "directory for build outputs")

	rootCmd.AddCommand(runCmd, casesCmd, inspectCmd, bazelCmd)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
