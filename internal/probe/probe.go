// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package probe runs a built fixture executable and checks what it prints.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/uber/linkprobe/internal/variant"
)

var (
	ErrNondeterministic = errors.New("output differs between runs")
	ErrOutputMismatch   = errors.New("output mismatch")

	// sysLibsLine is printed by the linker-forcing call: a float, then the
	// possibly empty dlerror message.
	sysLibsLine = regexp.MustCompile(`^-?[0-9]+\.[0-9]+( .*)?$`)
)

// Run executes exe runs times and returns its stdout split into lines. Every
// run must print the same bytes.
func Run(ctx context.Context, exe string, runs int) ([]string, error) {
	if runs < 1 {
		runs = 1
	}

	var first []byte
	for i := 0; i < runs; i++ {
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, exe)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("run %s: %w\n%s", exe, err, stderr.Bytes())
		}

		if i == 0 {
			first = stdout.Bytes()
			continue
		}
		if !bytes.Equal(first, stdout.Bytes()) {
			return nil, fmt.Errorf("%w: run %d of %s: %s", ErrNondeterministic, i+1, exe,
				cmp.Diff(Lines(first), Lines(stdout.Bytes())))
		}
	}
	return Lines(first), nil
}

// Lines splits output on newlines. The final newline does not start a line.
func Lines(out []byte) []string {
	s := strings.TrimSuffix(string(out), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Verify checks lines against what v must print.
func Verify(v variant.Variant, lines []string) error {
	want := v.Expected()
	got := lines

	if v.SysLibs {
		if len(lines) != len(want)+1 {
			return fmt.Errorf("%w: %s printed %d lines, want %d", ErrOutputMismatch, v.Name, len(lines), len(want)+1)
		}
		last := lines[len(lines)-1]
		if !sysLibsLine.MatchString(last) {
			return fmt.Errorf("%w: %s: linker-forcing line %q is not a number and a message", ErrOutputMismatch, v.Name, last)
		}
		got = lines[:len(lines)-1]
	}

	if diff := cmp.Diff(want, got); diff != "" {
		return fmt.Errorf("%w: %s (-want +got):\n%s", ErrOutputMismatch, v.Name, diff)
	}
	return nil
}

// VerifyDualExposure checks, for default-mode output, that each
// collaborator's C line equals its class line.
func VerifyDualExposure(lines []string) error {
	n := len(variant.Collaborators())
	if len(lines) < 2*n {
		return fmt.Errorf("%w: %d lines, want at least %d", ErrOutputMismatch, len(lines), 2*n)
	}
	for i, c := range variant.Collaborators() {
		if lines[i] != lines[n+i] {
			return fmt.Errorf("%w: %s C accessor printed %q, class accessor %q", ErrOutputMismatch, c.Name, lines[i], lines[n+i])
		}
	}
	return nil
}
