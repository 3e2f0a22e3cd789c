// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package build

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/linkprobe/internal/variant"
)

var testToolchain = Toolchain{CC: "zig cc", CXX: "zig c++", AR: "ar", Go: "go"}

func TestLibraryCommandsStatic(t *testing.T) {
	cmds := testToolchain.LibraryCommands("/repo", variant.Static, variant.LinkStatic, variant.Default, "/out")
	require.Len(t, cmds, 3)

	assert.Equal(t, []string{"zig", "cc"}, cmds[0].Args[:2])
	assert.Contains(t, cmds[0].Args, "/repo/test/linkage/static/csrc/static.c")
	assert.Contains(t, cmds[0].Args, "-fPIC")
	assert.Equal(t, []string{"zig", "c++"}, cmds[1].Args[:2])
	assert.Contains(t, cmds[1].Args, "/repo/test/linkage/static/csrc/static.cpp")

	assert.Equal(t, []string{
		"ar", "rcs", "/out/libprobe_static.a",
		"/out/obj/static/static.c.o", "/out/obj/static/static.cpp.o",
	}, cmds[2].Args)
}

func TestLibraryCommandsShared(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("soname flags are linux specific")
	}
	cmds := testToolchain.LibraryCommands("/repo", variant.Shared, variant.LinkDynamic, variant.Default, "/out")
	require.Len(t, cmds, 3)

	link := cmds[2].Args
	assert.Equal(t, []string{"zig", "c++", "-shared", "-o", "/out/libprobe_shared.so"}, link[:5])
	assert.Contains(t, link, "-Wl,-soname,libprobe_shared.so")
}

func TestLibraryCommandsSwapped(t *testing.T) {
	// The shared collaborator built as an archive keeps its library name.
	cmds := testToolchain.LibraryCommands("/repo", variant.Shared, variant.LinkStatic, variant.Default, "/out")
	last := cmds[len(cmds)-1]
	assert.Equal(t, "ar", last.Args[0])
	assert.Equal(t, "/out/libprobe_shared.a", last.Args[2])
}

func TestLibraryCommandsCOnly(t *testing.T) {
	for _, mode := range []variant.Mode{variant.None, variant.System} {
		t.Run(mode.String(), func(t *testing.T) {
			cmds := testToolchain.LibraryCommands("/repo", variant.Static, variant.LinkStatic, mode, "/out")
			require.Len(t, cmds, 2)
			assert.Contains(t, cmds[0].Args, "/repo/test/linkage/static/csrc/static.c")
			assert.Equal(t, []string{"ar", "rcs", "/out/libprobe_static.a", "/out/obj/static/static.c.o"}, cmds[1].Args)

			cmds = testToolchain.LibraryCommands("/repo", variant.Shared, variant.LinkDynamic, mode, "/out")
			require.Len(t, cmds, 2)
			link := cmds[1].Args
			assert.Equal(t, []string{"zig", "cc", "-shared", "-o"}, link[:4])
			for _, cmd := range cmds {
				assert.NotContains(t, cmd.String(), ".cpp")
			}
		})
	}
}

func TestExecutableCommand(t *testing.T) {
	v := variant.Variant{Name: "x", Flags: []string{"none"}, SysLibs: true}
	cmd := testToolchain.ExecutableCommand("/repo", v.BuildTags(), "/out/lib", "/out/exe")

	assert.Equal(t, "/repo", cmd.Dir)
	assert.Equal(t, "go build -tags linkprobe,none,syslibs -o /out/exe ./test/linkage/exe", cmd.String())
	assert.Equal(t, "-L/out/lib -Wl,-rpath,/out/lib", cmd.Env["CGO_LDFLAGS"])
	assert.Equal(t, "1", cmd.Env["CGO_ENABLED"])
	assert.Equal(t, "zig cc", cmd.Env["CC"])
}

func TestOverrideEnv(t *testing.T) {
	got := overrideEnv(
		[]string{"PATH=/bin", "CC=gcc", "HOME=/root"},
		map[string]string{"CC": "clang", "CGO_ENABLED": "1"},
	)
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "CC=clang", "CGO_ENABLED=1"}, got)
	assert.Equal(t, []string{"A=1"}, overrideEnv([]string{"A=1"}, nil))
}

func TestSharedLibExt(t *testing.T) {
	assert.Equal(t, "so", SharedLibExt("linux"))
	assert.Equal(t, "dylib", SharedLibExt("darwin"))
	assert.Equal(t, "dll", SharedLibExt("windows"))
}

func TestRunReportsOutput(t *testing.T) {
	tc := Toolchain{Go: "go", Env: []string{}}
	err := tc.run(context.Background(), Command{Args: []string{filepath.Join(t.TempDir(), "missing-compiler")}})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "run "), err.Error())

	assert.EqualError(t, tc.run(context.Background(), Command{}), "empty command")
}
