// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package bazelgen writes the BUILD.bazel that builds the linkage fixture
// with Bazel instead of the harness.
package bazelgen

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bazelbuild/buildtools/build"
	"github.com/uber/linkprobe/internal/variant"
)

// ImportPath is the Go import path of the fixture directory.
const ImportPath = "github.com/uber/linkprobe/test/linkage"

var exeSrcs = []string{
	"exe/ldflags_none.go",
	"exe/main.go",
	"exe/mode_default.go",
	"exe/mode_none.go",
	"exe/mode_system.go",
	"exe/nosyslibs.go",
	"exe/syslibs.go",
}

// Generate returns the BUILD file for test/linkage. Every variant becomes a
// go_binary, and each binary gets a go_test that runs it. The binaries are
// built with the bazel tag, which drops the -l flags of the harness build;
// their libraries come from cdeps instead.
func Generate(vs []variant.Variant) *build.File {
	f := &build.File{Path: "test/linkage/BUILD.bazel", Type: build.TypeBuild}

	f.Stmt = append(f.Stmt,
		load("@rules_cc//cc:defs.bzl", "cc_binary", "cc_import", "cc_library"),
		load("@io_bazel_rules_go//go:def.bzl", "go_binary", "go_library", "go_test"),
	)

	for _, c := range variant.Collaborators() {
		for _, fl := range []flavor{withCXX, cOnly} {
			f.Stmt = append(f.Stmt, collaboratorRules(c, fl)...)
		}
	}

	for _, v := range vs {
		f.Stmt = append(f.Stmt, variantRules(v)...)
	}
	return f
}

// Format renders the file the way buildifier would.
func Format(f *build.File) []byte {
	return build.Format(f)
}

// flavor selects the sources a collaborator is built from.
type flavor string

const (
	withCXX flavor = ""
	// cOnly leaves out the C++ sources, for modes without class accessors.
	cOnly flavor = "c"
)

func flavorOf(m variant.Mode) flavor {
	if m.UsesCXX() {
		return withCXX
	}
	return cOnly
}

// suffix is appended to the rule names of fl.
func (fl flavor) suffix() string {
	if fl == withCXX {
		return ""
	}
	return "_" + string(fl)
}

// collaboratorRules builds c both ways: :<library>_dynamic imports a shared
// object, :<library>_static is an archive. Each gets its own Go binding.
// The cOnly flavor carries a _c suffix.
func collaboratorRules(c variant.Collaborator, fl flavor) []build.Expr {
	dir := c.Name + "/csrc/"
	srcs := []string{dir + c.Name + ".c"}
	hdrs := []string{dir + c.Name + ".h"}
	if fl == withCXX {
		srcs = append(srcs, dir+c.Name+".cpp")
		hdrs = append(hdrs, dir+c.Name+".hpp")
	}
	so := sharedObject(c, fl)

	return []build.Expr{
		call("cc_binary",
			attr("name", str(so)),
			attr("srcs", strs(append(append([]string{}, srcs...), hdrs...))),
			attr("copts", strs([]string{"-fvisibility=hidden"})),
			attr("linkshared", &build.Ident{Name: "True"}),
		),
		call("cc_import",
			attr("name", str(ccName(c, variant.LinkDynamic, fl))),
			attr("hdrs", strs(hdrs)),
			attr("shared_library", str(":"+so)),
		),
		call("cc_library",
			attr("name", str(ccName(c, variant.LinkStatic, fl))),
			attr("srcs", strs(srcs)),
			attr("hdrs", strs(hdrs)),
			attr("includes", strs([]string{c.Name + "/csrc"})),
			attr("linkstatic", &build.Ident{Name: "True"}),
		),
		goBinding(c, variant.LinkDynamic, fl),
		goBinding(c, variant.LinkStatic, fl),
	}
}

func goBinding(c variant.Collaborator, kind variant.Linkage, fl flavor) build.Expr {
	srcs := []string{
		c.Name + "/class.go",
		c.Name + "/ldflags.go",
		c.Name + "/ldflags_cxx.go",
		c.Name + "/" + c.Name + ".go",
	}
	return call("go_library",
		attr("name", str(bindingName(c, kind, fl))),
		attr("srcs", strs(srcs)),
		attr("cdeps", strs([]string{":" + ccName(c, kind, fl)})),
		attr("cgo", &build.Ident{Name: "True"}),
		attr("importpath", str(path.Join(ImportPath, c.Name))),
	)
}

func variantRules(v variant.Variant) []build.Expr {
	fl := flavorOf(v.Mode())
	var deps, cdeps []string
	for _, c := range variant.Collaborators() {
		kind := v.LinkageOf(c)
		deps = append(deps, ":"+bindingName(c, kind, fl))
		cdeps = append(cdeps, ":"+ccName(c, kind, fl))
	}
	sort.Strings(deps)
	sort.Strings(cdeps)

	var want strings.Builder
	want.WriteString("^")
	for _, l := range v.Expected() {
		want.WriteString(regexp.QuoteMeta(l) + `\n`)
	}

	bin := "exe_" + v.Name
	return []build.Expr{
		call("go_binary",
			attr("name", str(bin)),
			attr("srcs", strs(exeSrcs)),
			attr("cdeps", strs(cdeps)),
			attr("cgo", &build.Ident{Name: "True"}),
			attr("gotags", strs(GoTags(v))),
			attr("deps", strs(deps)),
		),
		call("go_test",
			attr("name", str(bin+"_test")),
			attr("srcs", strs([]string{"linkage_test.go"})),
			attr("data", strs([]string{":" + bin})),
			attr("env", &build.DictExpr{List: []*build.KeyValueExpr{
				{Key: str("BINARY"), Value: str(fmt.Sprintf("$(rlocationpath :%s)", bin))},
				{Key: str("WANT"), Value: str(want.String())},
			}}),
			attr("deps", strs([]string{
				"@com_github_stretchr_testify//assert",
				"@io_bazel_rules_go//go/runfiles",
			})),
		),
	}
}

// GoTags are the build tags of v under Bazel: the harness tags plus bazel.
func GoTags(v variant.Variant) []string {
	tags := append(v.BuildTags(), variant.TagBazel)
	sort.Strings(tags[1:])
	return tags
}

func bindingName(c variant.Collaborator, kind variant.Linkage, fl flavor) string {
	return c.Name + "_go" + fl.suffix() + "_" + kind.String()
}

func ccName(c variant.Collaborator, kind variant.Linkage, fl flavor) string {
	return c.Library + fl.suffix() + "_" + kind.String()
}

func sharedObject(c variant.Collaborator, fl flavor) string {
	return "lib" + c.Library + fl.suffix() + ".so"
}

func load(module string, symbols ...string) *build.LoadStmt {
	l := &build.LoadStmt{Module: str(module)}
	for _, s := range symbols {
		l.From = append(l.From, &build.Ident{Name: s})
		l.To = append(l.To, &build.Ident{Name: s})
	}
	return l
}

func call(kind string, attrs ...build.Expr) *build.CallExpr {
	return &build.CallExpr{
		X:    &build.Ident{Name: kind},
		List: attrs,
	}
}

func attr(name string, value build.Expr) *build.AssignExpr {
	return &build.AssignExpr{
		LHS: &build.Ident{Name: name},
		Op:  "=",
		RHS: value,
	}
}

func str(s string) *build.StringExpr {
	return &build.StringExpr{Value: s}
}

func strs(ss []string) *build.ListExpr {
	l := &build.ListExpr{}
	for _, s := range ss {
		l.List = append(l.List, str(s))
	}
	return l
}
