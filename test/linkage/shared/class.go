// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !none && !system

package shared

// #cgo CFLAGS: -I${SRCDIR}/csrc
// #include "shared.h"
import "C"

// Shared mirrors the C++ class of the same name.
type Shared struct {
	str string
}

// New constructs the class through its C entry point.
func New() *Shared {
	return &Shared{str: C.GoString(C.shared_class_get_string())}
}

// GetString must return the same text as the package level GetString.
func (s *Shared) GetString() string {
	return s.str
}
