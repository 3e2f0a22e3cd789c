// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe

// Package static binds the collaborator the fixture embeds into the
// executable by default.
package static

// #cgo CFLAGS: -I${SRCDIR}/csrc
// #include "static.h"
import "C"

// GetString returns the collaborator text through its C entry point.
func GetString() string {
	return C.GoString(C.static_get_string())
}
