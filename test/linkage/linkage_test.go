// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package linkage_test

import (
	"os"
	"os/exec"
	"testing"

	"github.com/bazelbuild/rules_go/go/runfiles"
	"github.com/stretchr/testify/assert"
)

// TestOutput runs a fixture executable built by Bazel. BINARY is its
// runfiles path and WANT a regexp for its stdout.
func TestOutput(t *testing.T) {
	binaryRPath := os.Getenv("BINARY")
	if binaryRPath == "" {
		t.Skip("BINARY is set by the generated Bazel go_test")
	}
	want := os.Getenv("WANT")

	binary, err := runfiles.Rlocation(binaryRPath)
	if err != nil {
		t.Fatalf("unable to locate fixture binary %q: %v", binaryRPath, err)
	}

	got, err := exec.Command(binary).Output()
	if err != nil {
		t.Fatalf("run %q: %v", binary, err)
	}

	assert.Regexp(t, want, string(got))
}
