// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package build drives the C toolchain and the go command to produce the
// fixture's libraries and executable.
package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/uber/linkprobe/internal/variant"
	"go.uber.org/zap"
)

// LinkageDir is the fixture directory relative to the module root.
const LinkageDir = "test/linkage"

// ExePackage is the fixture executable's package relative to the module root.
const ExePackage = "./" + LinkageDir + "/exe"

// Toolchain names the programs used to build. CC and CXX may carry
// arguments, e.g. "zig cc".
type Toolchain struct {
	CC  string
	CXX string
	AR  string
	Go  string
	// Env is the base environment; os.Environ when nil.
	Env []string
	Log *zap.Logger
}

// Command is a single step of a build.
type Command struct {
	Args []string
	Env  map[string]string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// SourceDir returns the directory holding the C and C++ sources of c.
func SourceDir(root string, c variant.Collaborator) string {
	return filepath.Join(root, LinkageDir, c.Name, "csrc")
}

// LibraryPath is where a library of the given kind is written in dir.
func LibraryPath(dir string, c variant.Collaborator, kind variant.Linkage) string {
	if kind == variant.LinkStatic {
		return filepath.Join(dir, "lib"+c.Library+".a")
	}
	return filepath.Join(dir, "lib"+c.Library+"."+SharedLibExt(runtime.GOOS))
}

// SharedLibExt is the file extension of shared libraries on goos.
func SharedLibExt(goos string) string {
	switch goos {
	case "darwin":
		return "dylib"
	case "windows":
		return "dll"
	}
	return "so"
}

// LibraryCommands returns the steps that build c as kind into dir. Objects
// go to dir/obj. The C++ sources are only compiled in when mode reaches the
// class accessors; otherwise the library is plain C and links without the C++
// runtime.
func (t Toolchain) LibraryCommands(root string, c variant.Collaborator, kind variant.Linkage, mode variant.Mode, dir string) []Command {
	src := SourceDir(root, c)
	objDir := filepath.Join(dir, "obj", c.Name)
	cflags := []string{"-c", "-fPIC", "-O2", "-fvisibility=hidden", "-I" + src}

	objs := []string{filepath.Join(objDir, c.Name+".c.o")}
	cmds := []Command{
		{Args: concat(fields(t.CC), cflags, []string{"-o", objs[0], filepath.Join(src, c.Name+".c")})},
	}
	linker := t.CC
	if mode.UsesCXX() {
		cxxObj := filepath.Join(objDir, c.Name+".cpp.o")
		cmds = append(cmds, Command{Args: concat(fields(t.CXX), cflags, []string{"-o", cxxObj, filepath.Join(src, c.Name+".cpp")})})
		objs = append(objs, cxxObj)
		linker = t.CXX
	}

	out := LibraryPath(dir, c, kind)
	switch kind {
	case variant.LinkStatic:
		cmds = append(cmds, Command{Args: concat(fields(t.AR), []string{"rcs", out}, objs)})
	default:
		link := concat([]string{"-shared", "-o", out}, objs)
		if runtime.GOOS == "darwin" {
			link = append(link, "-install_name", "@rpath/"+filepath.Base(out))
		} else {
			link = append(link, "-Wl,-soname,"+filepath.Base(out))
		}
		cmds = append(cmds, Command{Args: concat(fields(linker), link)})
	}
	return cmds
}

// BuildLibrary builds c as kind for mode into dir and returns the library
// path.
func (t Toolchain) BuildLibrary(ctx context.Context, root string, c variant.Collaborator, kind variant.Linkage, mode variant.Mode, dir string) (string, error) {
	if err := os.MkdirAll(filepath.Join(dir, "obj", c.Name), 0o755); err != nil {
		return "", err
	}
	for _, cmd := range t.LibraryCommands(root, c, kind, mode, dir) {
		if err := t.run(ctx, cmd); err != nil {
			return "", fmt.Errorf("build %s library %s: %w", kind, c.Library, err)
		}
	}
	return LibraryPath(dir, c, kind), nil
}

// ExecutableCommand returns the go build step for the fixture executable.
// libDir is searched for the collaborator libraries at link time and is
// recorded as the run-time search path.
func (t Toolchain) ExecutableCommand(root string, tags []string, libDir, out string) Command {
	return Command{
		Args: []string{t.Go, "build", "-tags", strings.Join(tags, ","), "-o", out, ExePackage},
		Dir:  root,
		Env: map[string]string{
			"CGO_ENABLED": "1",
			"CC":          t.CC,
			"CXX":         t.CXX,
			"CGO_LDFLAGS": fmt.Sprintf("-L%s -Wl,-rpath,%s", libDir, libDir),
		},
	}
}

// BuildExecutable builds the fixture executable for v into out.
func (t Toolchain) BuildExecutable(ctx context.Context, root string, v variant.Variant, libDir, out string) error {
	absLib, err := filepath.Abs(libDir)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	if err := t.run(ctx, t.ExecutableCommand(root, v.BuildTags(), absLib, absOut)); err != nil {
		return fmt.Errorf("build executable %s: %w", v.Name, err)
	}
	return nil
}

func (t Toolchain) run(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("empty command")
	}
	t.logger().Debug("run", zap.Stringer("cmd", c), zap.String("dir", c.Dir))

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = overrideEnv(t.environ(), c.Env)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w\n%s", c, err, out)
	}
	return nil
}

func (t Toolchain) environ() []string {
	if t.Env != nil {
		return t.Env
	}
	return os.Environ()
}

func (t Toolchain) logger() *zap.Logger {
	if t.Log != nil {
		return t.Log
	}
	return zap.NewNop()
}

// overrideEnv replaces or appends the given keys in base.
func overrideEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

func fields(s string) []string {
	return strings.Fields(s)
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
