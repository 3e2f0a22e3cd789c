// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/linkprobe/internal/variant"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "linkprobe.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(contents), 0644))
	return fname
}

func TestDefaultHonoursEnv(t *testing.T) {
	t.Setenv("CC", "zig cc")
	t.Setenv("CXX", "")

	cfg := Default()
	assert.Equal(t, "zig cc", cfg.Toolchain.CC)
	assert.Equal(t, "c++", cfg.Toolchain.CXX)
	assert.Equal(t, 3, cfg.Runs)
	assert.GreaterOrEqual(t, cfg.Jobs, 1)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingDefaultFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Len(t, cfg.Variants(), len(variant.Matrix()))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		check    func(t *testing.T, cfg Config)
		wantErr  string
	}{
		{
			name: "merge",
			contents: `
out: /tmp/probe
toolchain:
  cxx: clang++
runs: 5
cases:
  - name: both
    flags: [none, system]
    swap: true
  - name: forced
    syslibs: true
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "/tmp/probe", cfg.Out)
				assert.Equal(t, "clang++", cfg.Toolchain.CXX)
				assert.Equal(t, Default().Toolchain.CC, cfg.Toolchain.CC)
				assert.Equal(t, 5, cfg.Runs)

				vs := cfg.Variants()
				require.Len(t, vs, 2)
				assert.Equal(t, variant.None, vs[0].Mode())
				assert.True(t, vs[0].Swap)
				assert.Equal(t, variant.Default, vs[1].Mode())
				assert.True(t, vs[1].SysLibs)
			},
		},
		{
			name:     "bad yaml",
			contents: "runs: [",
			wantErr:  "parse config file",
		},
		{
			name:     "negative runs",
			contents: "runs: -1",
			wantErr:  "runs must be at least 1",
		},
		{
			name: "duplicate case",
			contents: `
cases:
  - name: a
  - name: a
`,
			wantErr: `duplicate case "a"`,
		},
		{
			name: "unknown flag",
			contents: `
cases:
  - name: a
    flags: [stlport_static]
`,
			wantErr: "unknown mode flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.contents))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadUnreadable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
