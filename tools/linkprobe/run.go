// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/uber/linkprobe/internal/build"
	"github.com/uber/linkprobe/internal/matrix"
	"github.com/uber/linkprobe/internal/variant"
)

var modeFilter string

var runCmd = &cobra.Command{
	Use:   "run [case...]",
	Short: "Build and check the given cases, or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		vs, err := selectCases(cfg.Variants(), args)
		if err != nil {
			return err
		}
		if vs, err = filterMode(vs, modeFilter); err != nil {
			return err
		}

		r := &matrix.Runner{
			Toolchain: build.Toolchain{
				CC:  cfg.Toolchain.CC,
				CXX: cfg.Toolchain.CXX,
				AR:  cfg.Toolchain.AR,
				Go:  cfg.Toolchain.Go,
				Log: logger,
			},
			Root: cfg.Root,
			Out:  cfg.Out,
			Runs: cfg.Runs,
			Jobs: cfg.Jobs,
			Log:  logger,
		}

		results, crossErr := r.Run(cmd.Context(), vs)
		if err := printResults(cmd.OutOrStdout(), results); err != nil {
			return err
		}

		if crossErr != nil {
			return crossErr
		}
		if failed := matrix.Failed(results); len(failed) > 0 {
			return fmt.Errorf("%d of %d cases failed", len(failed), len(results))
		}
		return nil
	},
}

// selectCases keeps the named cases, in the order given.
func selectCases(all []variant.Variant, names []string) ([]variant.Variant, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]variant.Variant, len(all))
	for _, v := range all {
		byName[v.Name] = v
	}
	out := make([]variant.Variant, 0, len(names))
	for _, n := range names {
		v, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown case %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}

// filterMode keeps the cases that resolve to mode. An empty mode keeps all.
func filterMode(vs []variant.Variant, mode string) ([]variant.Variant, error) {
	if mode == "" {
		return vs, nil
	}
	m, err := variant.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	var out []variant.Variant
	for _, v := range vs {
		if v.Mode() == m {
			out = append(out, v)
		}
	}
	return out, nil
}

func printResults(w io.Writer, results []matrix.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tMODE\tSHARED\tSTATIC\tSYSLIBS\tRESULT")
	for _, res := range results {
		v := res.Variant
		status := "ok"
		if res.Err != nil {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			v.Name, v.Mode(), v.LinkageOf(variant.Shared), v.LinkageOf(variant.Static), v.SysLibs, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "\n%s:\n%s\n", res.Variant.Name, res.Err)
		}
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&modeFilter, "mode", "", "only run cases resolving to this mode (default, none or system)")
}
