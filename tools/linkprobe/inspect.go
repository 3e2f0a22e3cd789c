// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/uber/linkprobe/internal/elfcheck"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <binary>",
	Short: "Print the dynamic dependencies and imported symbols of an ELF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := elfcheck.Inspect(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "type:    %s\n", r.Type)
		fmt.Fprintf(w, "machine: %s\n", r.Machine)
		if r.Interp != "" {
			fmt.Fprintf(w, "interp:  %s\n", r.Interp)
		}
		fmt.Fprintln(w, "needed:")
		for _, n := range r.Needed {
			fmt.Fprintf(w, "  %s\n", n)
		}

		syms := make([]string, 0, len(r.Imported))
		for s := range r.Imported {
			syms = append(syms, s)
		}
		sort.Strings(syms)
		fmt.Fprintln(w, "imported:")
		for _, s := range syms {
			if lib := r.Imported[s]; lib != "" {
				fmt.Fprintf(w, "  %s (%s)\n", s, lib)
			} else {
				fmt.Fprintf(w, "  %s\n", s)
			}
		}
		return nil
	},
}
