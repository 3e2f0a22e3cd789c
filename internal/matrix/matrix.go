// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package matrix builds, inspects and runs every variant of the fixture, and
// compares the outputs of variants that must agree.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/uber/linkprobe/internal/build"
	"github.com/uber/linkprobe/internal/dynload"
	"github.com/uber/linkprobe/internal/elfcheck"
	"github.com/uber/linkprobe/internal/probe"
	"github.com/uber/linkprobe/internal/variant"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrCrossCheck reports variants that must agree but printed different lines.
var ErrCrossCheck = errors.New("variants disagree")

// Result is the outcome of one variant.
type Result struct {
	Variant variant.Variant
	Exe     string
	Lines   []string
	// Err is the first failing step; nil when the variant passed.
	Err      error
	Duration time.Duration
}

// Runner runs variants.
type Runner struct {
	Toolchain build.Toolchain
	// Root is the module root.
	Root string
	// Out holds one directory per variant.
	Out  string
	Runs int
	Jobs int
	Log  *zap.Logger
}

// Run runs every variant, at most Jobs at a time. Failing variants do not
// stop the others. The returned error joins the cross-variant disagreements.
func (r *Runner) Run(ctx context.Context, vs []variant.Variant) ([]Result, error) {
	results := make([]Result, len(vs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Jobs, 1))
	for i, v := range vs {
		g.Go(func() error {
			results[i] = r.RunCase(gctx, v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, CrossCheck(results)
}

// RunCase builds v and checks it. Each step feeds the next, so the first
// failure ends the case.
func (r *Runner) RunCase(ctx context.Context, v variant.Variant) Result {
	start := time.Now()
	res := Result{Variant: v}
	log := r.logger().With(zap.String("case", v.Name))

	res.Lines, res.Exe, res.Err = r.runCase(ctx, v, log)
	res.Duration = time.Since(start)

	if res.Err != nil {
		log.Warn("case failed", zap.Error(res.Err))
	} else {
		log.Info("case passed", zap.Duration("took", res.Duration))
	}
	return res
}

func (r *Runner) runCase(ctx context.Context, v variant.Variant, log *zap.Logger) ([]string, string, error) {
	if err := v.Validate(); err != nil {
		return nil, "", err
	}

	dir := filepath.Join(r.Out, v.Name)
	libDir := filepath.Join(dir, "lib")
	if err := os.RemoveAll(dir); err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return nil, "", err
	}

	mode := v.Mode()
	for _, c := range variant.Collaborators() {
		kind := v.LinkageOf(c)
		log.Debug("build library", zap.String("library", c.Library), zap.Stringer("linkage", kind), zap.Stringer("mode", mode))

		path, err := r.Toolchain.BuildLibrary(ctx, r.Root, c, kind, mode, libDir)
		if err != nil {
			return nil, "", err
		}
		if kind == variant.LinkDynamic {
			if err := checkShared(path, c, mode); err != nil {
				return nil, "", err
			}
		}
	}

	exe := filepath.Join(dir, "exe")
	log.Debug("build executable", zap.Strings("tags", v.BuildTags()))
	if err := r.Toolchain.BuildExecutable(ctx, r.Root, v, libDir, exe); err != nil {
		return nil, "", err
	}

	if err := elfcheck.CheckBuildTags(exe, v.BuildTags()); err != nil {
		return nil, exe, err
	}
	if runtime.GOOS == "linux" {
		report, err := elfcheck.Inspect(exe)
		if err != nil {
			return nil, exe, err
		}
		log.Debug("inspected executable", zap.Strings("needed", report.Needed))
		if err := elfcheck.CheckExecutable(report, v); err != nil {
			return nil, exe, err
		}
	}

	lines, err := probe.Run(ctx, exe, r.Runs)
	if err != nil {
		return lines, exe, err
	}
	if err := probe.Verify(v, lines); err != nil {
		return lines, exe, err
	}
	if v.Mode() == variant.Default {
		if err := probe.VerifyDualExposure(lines); err != nil {
			return lines, exe, err
		}
	}
	return lines, exe, nil
}

// checkShared checks a library built for dynamic linkage: its ELF shape and
// that the accessors of mode resolve at run time.
func checkShared(path string, c variant.Collaborator, mode variant.Mode) error {
	if runtime.GOOS == "linux" {
		report, err := elfcheck.Inspect(path)
		if err != nil {
			return err
		}
		if err := elfcheck.CheckSharedLibrary(report, c, mode); err != nil {
			return err
		}
	}
	if err := dynload.CheckExports(path, c, mode); err != nil && !errors.Is(err, dynload.ErrUnsupported) {
		return err
	}
	return nil
}

// CrossCheck compares the outputs of the variants that passed. Variants
// with the same mode and syslibs setting must print the same lines whatever
// their linkage, and none must print what system prints.
func CrossCheck(results []Result) error {
	type key struct {
		mode    variant.Mode
		syslibs bool
	}

	groups := make(map[key][]Result)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		m := res.Variant.Mode()
		if m == variant.System {
			m = variant.None
		}
		k := key{m, res.Variant.SysLibs}
		groups[k] = append(groups[k], res)
	}

	var errs []error
	for _, group := range groups {
		for _, res := range group[1:] {
			if !slices.Equal(group[0].Lines, res.Lines) {
				errs = append(errs, fmt.Errorf("%w: %s printed %q, %s printed %q",
					ErrCrossCheck, group[0].Variant.Name, group[0].Lines, res.Variant.Name, res.Lines))
			}
		}
	}
	return errors.Join(errs...)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r *Runner) logger() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}
