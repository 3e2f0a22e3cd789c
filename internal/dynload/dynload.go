// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package dynload resolves the collaborator contract in a built shared
// library at run time, without linking against it.
package dynload

import (
	"errors"
	"fmt"

	"github.com/uber/linkprobe/internal/variant"
)

// ErrUnsupported is returned by Open where purego cannot load libraries.
var ErrUnsupported = errors.New("run-time loading is not supported on this platform")

// CheckDualExposure loads the library at path and checks that the C accessor
// and the class accessor of c both return c.Text.
func CheckDualExposure(path string, c variant.Collaborator) error {
	return CheckExports(path, c, variant.Default)
}

// CheckExports loads the library at path and checks that every accessor c
// exports in mode m returns c.Text.
func CheckExports(path string, c variant.Collaborator, m variant.Mode) (_err error) {
	lib, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := lib.Close(); err != nil && _err == nil {
			_err = err
		}
	}()

	for _, sym := range c.Exports(m) {
		got, err := lib.String(sym)
		if err != nil {
			return err
		}
		if got != c.Text {
			return fmt.Errorf("%s: %s returned %q, want %q", path, sym, got, c.Text)
		}
	}
	return nil
}
