// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/uber/linkprobe/internal/bazelgen"
	"go.uber.org/zap"
)

var bazelOutput string

var bazelCmd = &cobra.Command{
	Use:   "bazel",
	Short: "Generate a BUILD.bazel that builds every case with rules_cc and rules_go",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := bazelgen.Format(bazelgen.Generate(cfg.Variants()))
		if bazelOutput == "" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(bazelOutput, data, 0o644); err != nil {
			return err
		}
		logger.Info("wrote BUILD file", zap.String("path", bazelOutput))
		return nil
	},
}

func init() {
	bazelCmd.Flags().StringVarP(&bazelOutput, "output", "o", "", "write to this file instead of stdout")
}
