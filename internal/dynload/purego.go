// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build darwin || linux

package dynload

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Library is an open handle to a shared library.
type Library struct {
	path   string
	handle uintptr
}

// Open loads path with every symbol resolved immediately, so an unresolved
// dependency of the library fails here.
func Open(path string) (*Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	return &Library{path: path, handle: h}, nil
}

// String calls sym as a function taking no arguments and returning a C
// string.
func (l *Library) String(sym string) (string, error) {
	addr, err := purego.Dlsym(l.handle, sym)
	if err != nil {
		return "", fmt.Errorf("dlsym %s in %s: %w", sym, l.path, err)
	}
	var fn func() string
	purego.RegisterFunc(&fn, addr)
	return fn(), nil
}

func (l *Library) Close() error {
	if err := purego.Dlclose(l.handle); err != nil {
		return fmt.Errorf("dlclose %s: %w", l.path, err)
	}
	return nil
}
