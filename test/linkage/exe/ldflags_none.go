// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && none && !bazel

package main

// In none mode the collaborators are called from C directly, without their
// Go bindings, so the executable names them itself.

// #cgo LDFLAGS: -lprobe_shared -lprobe_static
import "C"
