// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uber/linkprobe/internal/variant"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List the configured cases and the tags each is built with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := filterMode(cfg.Variants(), modeFilter)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CASE\tMODE\tTAGS\tSHARED\tSTATIC\tLINES")
		for _, v := range vs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
				v.Name, v.Mode(), strings.Join(v.BuildTags(), ","),
				v.LinkageOf(variant.Shared), v.LinkageOf(variant.Static), v.LineCount())
		}
		return tw.Flush()
	},
}

func init() {
	casesCmd.Flags().StringVar(&modeFilter, "mode", "", "only list cases resolving to this mode (default, none or system)")
}
