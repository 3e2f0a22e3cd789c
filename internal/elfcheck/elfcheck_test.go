// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package elfcheck

import (
	"debug/elf"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/linkprobe/internal/variant"
)

func exeReport(needed []string, imported map[string]string) *Report {
	return &Report{
		Path:     "exe",
		Type:     elf.ET_EXEC,
		Dynamic:  true,
		Needed:   needed,
		Imported: imported,
		Exported: map[string]bool{},
	}
}

func TestCheckExecutable(t *testing.T) {
	tests := []struct {
		name    string
		v       variant.Variant
		r       *Report
		wantErr bool
	}{
		{
			name: "default linkage",
			v:    variant.Variant{Name: "default"},
			r: exeReport(
				[]string{"libc.so.6", "libprobe_shared.so"},
				map[string]string{"shared_get_string": "", "puts": "libc.so.6"},
			),
		},
		{
			name: "swapped linkage",
			v:    variant.Variant{Name: "swap", Swap: true},
			r: exeReport(
				[]string{"libc.so.6", "libprobe_static.so"},
				map[string]string{"static_get_string": ""},
			),
		},
		{
			name:    "shared collaborator embedded",
			v:       variant.Variant{Name: "default"},
			r:       exeReport([]string{"libc.so.6"}, map[string]string{}),
			wantErr: true,
		},
		{
			name: "static collaborator loaded",
			v:    variant.Variant{Name: "default"},
			r: exeReport(
				[]string{"libprobe_shared.so", "libprobe_static.so"},
				map[string]string{"shared_get_string": "", "static_get_string": ""},
			),
			wantErr: true,
		},
		{
			name: "default mode with the C++ runtime",
			v:    variant.Variant{Name: "default"},
			r: exeReport(
				[]string{"libc.so.6", "libprobe_shared.so", "libstdc++.so.6"},
				map[string]string{"shared_get_string": ""},
			),
		},
		{
			name: "none mode is C only",
			v:    variant.Variant{Name: "none", Flags: []string{"none"}},
			r: exeReport(
				[]string{"libc.so.6", "libprobe_shared.so"},
				map[string]string{"shared_get_string": ""},
			),
		},
		{
			name: "none mode with the C++ runtime",
			v:    variant.Variant{Name: "none", Flags: []string{"none"}},
			r: exeReport(
				[]string{"libc.so.6", "libgcc_s.so.1", "libprobe_shared.so", "libstdc++.so.6"},
				map[string]string{"shared_get_string": ""},
			),
			wantErr: true,
		},
		{
			name: "system mode with libc++",
			v:    variant.Variant{Name: "system", Flags: []string{"system"}},
			r: exeReport(
				[]string{"libc++.so.1", "libc.so.6", "libprobe_shared.so"},
				map[string]string{"shared_get_string": ""},
			),
			wantErr: true,
		},
		{
			name: "syslibs",
			v:    variant.Variant{Name: "syslibs", SysLibs: true},
			r: exeReport(
				[]string{"libc.so.6", "libm.so.6", "libprobe_shared.so"},
				map[string]string{"shared_get_string": "", "sin": "libm.so.6", "dlerror": "libc.so.6"},
			),
		},
		{
			name: "syslibs unversioned",
			v:    variant.Variant{Name: "syslibs", SysLibs: true},
			r: exeReport(
				[]string{"libc.musl-x86_64.so.1", "libprobe_shared.so"},
				map[string]string{"shared_get_string": "", "sin": "", "dlerror": ""},
			),
		},
		{
			name: "syslibs without libm",
			v:    variant.Variant{Name: "syslibs", SysLibs: true},
			r: exeReport(
				[]string{"libprobe_shared.so"},
				map[string]string{"shared_get_string": "", "dlerror": "libc.so.6"},
			),
			wantErr: true,
		},
		{
			name: "sin from the wrong library",
			v:    variant.Variant{Name: "syslibs", SysLibs: true},
			r: exeReport(
				[]string{"libprobe_shared.so"},
				map[string]string{"shared_get_string": "", "sin": "libfoo.so", "dlerror": ""},
			),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExecutable(tt.r, tt.v)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLinkage)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckSharedLibrary(t *testing.T) {
	host, ok := HostMachine()
	if !ok {
		t.Skipf("unknown host machine %s", hostArch())
	}

	good := &Report{
		Path:     "libprobe_shared.so",
		Type:     elf.ET_DYN,
		Machine:  host,
		Dynamic:  true,
		Exported: map[string]bool{"shared_get_string": true},
	}
	assert.NoError(t, CheckSharedLibrary(good, variant.Shared, variant.None))
	assert.Error(t, CheckSharedLibrary(good, variant.Shared, variant.Default))

	good.Exported["shared_class_get_string"] = true
	good.Needed = []string{"libc.so.6", "libgcc_s.so.1", "libstdc++.so.6"}
	assert.NoError(t, CheckSharedLibrary(good, variant.Shared, variant.Default))
	assert.ErrorIs(t, CheckSharedLibrary(good, variant.Shared, variant.None), ErrLinkage)
	assert.ErrorIs(t, CheckSharedLibrary(good, variant.Shared, variant.System), ErrLinkage)

	archive := *good
	archive.Type = elf.ET_REL
	archive.Dynamic = false
	archive.Needed = nil
	err := CheckSharedLibrary(&archive, variant.Shared, variant.None)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dynamic section found")
}

func TestInspectSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("ELF only")
	}
	exe, err := os.Executable()
	require.NoError(t, err)

	r, err := Inspect(exe)
	require.NoError(t, err)
	if host, ok := HostMachine(); ok && runtime.GOARCH != "386" {
		assert.Equal(t, host, r.Machine)
	}
	if !r.Dynamic {
		assert.Empty(t, r.Needed)
		assert.Empty(t, r.Imported)
	}
}

func TestInspectNotELF(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "exe")
	require.NoError(t, os.WriteFile(fname, []byte("#!/bin/sh\n"), 0755))
	_, err := Inspect(fname)
	assert.Error(t, err)
}

func TestNeeds(t *testing.T) {
	r := exeReport([]string{"libm.so.6"}, nil)
	assert.True(t, r.Needs("libm."))
	assert.False(t, r.Needs("libdl."))
}
