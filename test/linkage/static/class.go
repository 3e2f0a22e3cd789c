// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !none && !system

package static

// #cgo CFLAGS: -I${SRCDIR}/csrc
// #include "static.h"
import "C"

// Static mirrors the C++ class of the same name.
type Static struct {
	str string
}

// New constructs the class through its C entry point.
func New() *Static {
	return &Static{str: C.GoString(C.static_class_get_string())}
}

// GetString must return the same text as the package level GetString.
func (s *Static) GetString() string {
	return s.str
}
