// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package elfcheck inspects the ELF files the fixture produces and checks
// that each collaborator was linked the way the variant asked for.
package elfcheck

import (
	"debug/buildinfo"
	"debug/elf"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/uber/linkprobe/internal/variant"
)

// ErrLinkage reports an artifact linked differently than its variant asks.
var ErrLinkage = errors.New("unexpected linkage")

// cxxRuntimes are the DT_NEEDED prefixes of the C++ standard libraries.
var cxxRuntimes = []string{"libstdc++.", "libc++."}

// Report is what the checks need from an ELF file.
type Report struct {
	Path    string
	Type    elf.Type
	Machine elf.Machine
	// Interp is the PT_INTERP path, empty for static executables.
	Interp string
	// Dynamic is set when the file has a SHT_DYNAMIC section.
	Dynamic bool
	// Needed lists DT_NEEDED entries.
	Needed []string
	// Imported maps undefined dynamic symbols to the library named by symbol
	// versioning, or "" when the symbol is unversioned.
	Imported map[string]string
	// Exported lists defined global dynamic symbols.
	Exported map[string]bool
}

// Inspect reads path.
func Inspect(path string) (*Report, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := &Report{
		Path:     path,
		Type:     f.Type,
		Machine:  f.Machine,
		Imported: make(map[string]string),
		Exported: make(map[string]bool),
	}

	for _, s := range f.Sections {
		if s.Type == elf.SHT_DYNAMIC {
			r.Dynamic = true
			break
		}
	}
	for _, p := range f.Progs {
		if p.Type != elf.PT_INTERP {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("read interpreter of %s: %w", path, err)
		}
		r.Interp = strings.TrimRight(string(data), "\x00")
	}

	if !r.Dynamic {
		return r, nil
	}

	if r.Needed, err = f.ImportedLibraries(); err != nil {
		return nil, fmt.Errorf("read DT_NEEDED of %s: %w", path, err)
	}
	sort.Strings(r.Needed)

	syms, err := f.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("read dynamic symbols of %s: %w", path, err)
	}
	for _, s := range syms {
		bind := elf.ST_BIND(s.Info)
		if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
			continue
		}
		if s.Section == elf.SHN_UNDEF {
			r.Imported[s.Name] = s.Library
			continue
		}
		r.Exported[s.Name] = true
	}
	return r, nil
}

// Needs reports whether a DT_NEEDED entry starts with prefix.
func (r *Report) Needs(prefix string) bool {
	for _, n := range r.Needed {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// Imports reports whether sym is an undefined dynamic symbol.
func (r *Report) Imports(sym string) bool {
	_, ok := r.Imported[sym]
	return ok
}

// CheckSharedLibrary checks that r is a shared object built for the host
// that exports the contract of c in mode m.
func CheckSharedLibrary(r *Report, c variant.Collaborator, m variant.Mode) error {
	var errs []error
	if r.Type != elf.ET_DYN {
		errs = append(errs, fmt.Errorf("ELF type %s incorrect, %s expected", r.Type, elf.ET_DYN))
	}
	if !r.Dynamic {
		errs = append(errs, errors.New("no dynamic section found"))
	}
	if want, ok := HostMachine(); ok && r.Machine != want {
		errs = append(errs, fmt.Errorf("ELF machine %s incorrect, %s expected", r.Machine, want))
	}
	for _, sym := range c.Exports(m) {
		if !r.Exported[sym] {
			errs = append(errs, fmt.Errorf("symbol %s is not exported", sym))
		}
	}
	if err := checkCOnly(r, m); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", r.Path, err)
	}
	return nil
}

// checkCOnly fails when a mode without the class accessors pulls in a C++
// runtime.
func checkCOnly(r *Report, m variant.Mode) error {
	if m.UsesCXX() {
		return nil
	}
	for _, prefix := range cxxRuntimes {
		for _, n := range r.Needed {
			if strings.HasPrefix(n, prefix) {
				return fmt.Errorf("%w: %s mode is C only but %s is in DT_NEEDED", ErrLinkage, m, n)
			}
		}
	}
	return nil
}

// CheckExecutable checks that the collaborators and system libraries of v
// were linked the way v asks for, and that only the default mode needs a C++
// runtime.
func CheckExecutable(r *Report, v variant.Variant) error {
	var errs []error
	for _, c := range variant.Collaborators() {
		soname := "lib" + c.Library + "."
		needed := r.Needs(soname)
		imported := r.Imports(c.Symbol)

		switch v.LinkageOf(c) {
		case variant.LinkDynamic:
			if !needed {
				errs = append(errs, fmt.Errorf("%w: %s is dynamic but %s* is not in DT_NEEDED", ErrLinkage, c.Name, soname))
			}
			if !imported {
				errs = append(errs, fmt.Errorf("%w: %s is dynamic but %s is not imported", ErrLinkage, c.Name, c.Symbol))
			}
		case variant.LinkStatic:
			if needed {
				errs = append(errs, fmt.Errorf("%w: %s is static but %s* is in DT_NEEDED", ErrLinkage, c.Name, soname))
			}
			if imported {
				errs = append(errs, fmt.Errorf("%w: %s is static but %s is imported", ErrLinkage, c.Name, c.Symbol))
			}
		}
	}

	if err := checkCOnly(r, v.Mode()); err != nil {
		errs = append(errs, err)
	}
	if v.SysLibs {
		errs = append(errs, checkSysLibs(r)...)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s (%s): %w", r.Path, v.Name, err)
	}
	return nil
}

// checkSysLibs looks for the symbols of the linker-forcing call. dlerror
// lives in libc on newer glibc, so only its presence is checked.
func checkSysLibs(r *Report) []error {
	var errs []error
	if lib, ok := r.Imported["sin"]; !ok {
		errs = append(errs, fmt.Errorf("%w: sin is not imported, libm was not linked", ErrLinkage))
	} else if lib != "" && !strings.HasPrefix(lib, "libm") {
		errs = append(errs, fmt.Errorf("%w: sin resolves to %s, want libm", ErrLinkage, lib))
	}
	if !r.Imports("dlerror") {
		errs = append(errs, fmt.Errorf("%w: dlerror is not imported, libdl was not linked", ErrLinkage))
	}
	return errs
}

// CheckBuildTags checks the -tags setting recorded in a Go binary.
func CheckBuildTags(path string, tags []string) error {
	info, err := buildinfo.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read build info of %s: %w", path, err)
	}
	want := strings.Join(tags, ",")
	for _, s := range info.Settings {
		if s.Key != "-tags" {
			continue
		}
		if s.Value != want {
			return fmt.Errorf("%s built with -tags %q, want %q", path, s.Value, want)
		}
		return nil
	}
	if want != "" {
		return fmt.Errorf("%s has no -tags setting, want %q", path, want)
	}
	return nil
}
