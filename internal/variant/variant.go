// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package variant describes the build variants of the linkage fixture: the
// compile-time mode of the executable, how each collaborator library is
// linked, and the output each variant must print.
package variant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode is the compile-time mode of the fixture executable.
type Mode int

const (
	// Default uses both the C functions and the C++ classes.
	Default Mode = iota
	// None uses the C functions and prints with C stdio.
	None
	// System uses the C functions and prints with the Go standard library.
	System
)

// Build tags understood by the fixture.
const (
	TagFixture = "linkprobe"
	TagNone    = "none"
	TagSystem  = "system"
	TagSysLibs = "syslibs"
	// TagBazel marks builds where Bazel supplies the collaborator libraries
	// through cdeps instead of -l flags.
	TagBazel = "bazel"
)

// ErrUnknownFlag is returned for a mode flag other than none or system.
var ErrUnknownFlag = errors.New("unknown mode flag")

func (m Mode) String() string {
	switch m {
	case Default:
		return "default"
	case None:
		return TagNone
	case System:
		return TagSystem
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// UsesCXX reports whether the mode reaches the C++ class accessors. Only
// then are the collaborators built with their C++ sources.
func (m Mode) UsesCXX() bool {
	return m == Default
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "default", "":
		return Default, nil
	case TagNone:
		return None, nil
	case TagSystem:
		return System, nil
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownFlag, s)
}

// ModeOf resolves a set of mode flags. none takes precedence over system;
// no flag selects Default.
func ModeOf(flags []string) (Mode, error) {
	var none, system bool
	for _, f := range flags {
		switch f {
		case TagNone:
			none = true
		case TagSystem:
			system = true
		default:
			return Default, fmt.Errorf("%w: %q", ErrUnknownFlag, f)
		}
	}
	switch {
	case none:
		return None, nil
	case system:
		return System, nil
	}
	return Default, nil
}

// Linkage is how a collaborator library reaches the executable.
type Linkage int

const (
	// LinkDynamic loads the collaborator from a shared object.
	LinkDynamic Linkage = iota
	// LinkStatic embeds the collaborator from an archive.
	LinkStatic
)

func (l Linkage) String() string {
	if l == LinkStatic {
		return "static"
	}
	return "dynamic"
}

// Swap returns the other linkage kind.
func (l Linkage) Swap() Linkage {
	if l == LinkStatic {
		return LinkDynamic
	}
	return LinkStatic
}

// Collaborator is one of the two libraries the executable links against.
type Collaborator struct {
	// Name is the directory of the collaborator under test/linkage.
	Name string
	// Library is the name passed to -l.
	Library string
	// Text is returned by both accessors.
	Text string
	// Symbol is the C-linkage accessor.
	Symbol string
	// ClassSymbol is the C entry point into the C++ class accessor.
	ClassSymbol string
	// Linkage is the linkage kind when the variant is not swapped.
	Linkage Linkage
}

var (
	Shared = Collaborator{
		Name:        "shared",
		Library:     "probe_shared",
		Text:        "This is a string from a shared library.",
		Symbol:      "shared_get_string",
		ClassSymbol: "shared_class_get_string",
		Linkage:     LinkDynamic,
	}
	Static = Collaborator{
		Name:        "static",
		Library:     "probe_static",
		Text:        "This is a string from a static library.",
		Symbol:      "static_get_string",
		ClassSymbol: "static_class_get_string",
		Linkage:     LinkStatic,
	}
)

// Exports lists the symbols a shared build of c must export in mode m.
func (c Collaborator) Exports(m Mode) []string {
	if m.UsesCXX() {
		return []string{c.Symbol, c.ClassSymbol}
	}
	return []string{c.Symbol}
}

// Collaborators lists the collaborators in output order.
func Collaborators() []Collaborator {
	return []Collaborator{Shared, Static}
}

// Variant is one build of the fixture executable.
type Variant struct {
	Name string
	// Flags are the mode flags handed to the build, before precedence is
	// applied.
	Flags []string
	// Swap links the shared collaborator statically and the static one
	// dynamically.
	Swap bool
	// SysLibs builds the linker-forcing variant.
	SysLibs bool
}

// Mode resolves the variant's flags. Flags are validated by Validate; an
// invalid flag resolves to Default here.
func (v Variant) Mode() Mode {
	m, _ := ModeOf(v.Flags)
	return m
}

func (v Variant) Validate() error {
	if v.Name == "" {
		return errors.New("variant name is required")
	}
	if _, err := ModeOf(v.Flags); err != nil {
		return fmt.Errorf("variant %s: %w", v.Name, err)
	}
	return nil
}

// BuildTags returns the go build tags for the variant. The mode flags are
// passed through unresolved so the executable applies precedence itself.
func (v Variant) BuildTags() []string {
	tags := []string{TagFixture}
	seen := map[string]bool{TagFixture: true}
	for _, f := range v.Flags {
		if !seen[f] {
			seen[f] = true
			tags = append(tags, f)
		}
	}
	if v.SysLibs {
		tags = append(tags, TagSysLibs)
	}
	sort.Strings(tags[1:])
	return tags
}

// LinkageOf reports how c is linked in this variant.
func (v Variant) LinkageOf(c Collaborator) Linkage {
	if v.Swap {
		return c.Linkage.Swap()
	}
	return c.Linkage
}

// Expected returns the literal lines the executable prints, without the
// linker-forcing line.
func (v Variant) Expected() []string {
	lines := []string{Shared.Text, Static.Text}
	if v.Mode() == Default {
		lines = append(lines, Shared.Text, Static.Text)
	}
	return lines
}

// LineCount is the number of lines the executable prints, including the
// linker-forcing line.
func (v Variant) LineCount() int {
	n := len(v.Expected())
	if v.SysLibs {
		n++
	}
	return n
}

func (v Variant) String() string {
	return fmt.Sprintf("%s(mode=%s swap=%t syslibs=%t)", v.Name, v.Mode(), v.Swap, v.SysLibs)
}

// Matrix returns every flag set crossed with both linkage assignments and
// with and without the linker-forcing call.
func Matrix() []Variant {
	flagSets := [][]string{
		nil,
		{TagNone},
		{TagSystem},
		{TagNone, TagSystem},
	}

	var out []Variant
	for _, flags := range flagSets {
		for _, swap := range []bool{false, true} {
			for _, syslibs := range []bool{false, true} {
				v := Variant{Flags: flags, Swap: swap, SysLibs: syslibs}
				v.Name = nameOf(v)
				out = append(out, v)
			}
		}
	}
	return out
}

func nameOf(v Variant) string {
	parts := []string{"default"}
	if len(v.Flags) > 0 {
		parts = []string{strings.Join(v.Flags, "+")}
	}
	if v.Swap {
		parts = append(parts, "swap")
	}
	if v.SysLibs {
		parts = append(parts, TagSysLibs)
	}
	return strings.Join(parts, "-")
}
