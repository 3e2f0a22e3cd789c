// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe

// Package shared binds the collaborator the fixture links dynamically by
// default.
package shared

// #cgo CFLAGS: -I${SRCDIR}/csrc
// #include "shared.h"
import "C"

// GetString returns the collaborator text through its C entry point.
func GetString() string {
	return C.GoString(C.shared_get_string())
}
