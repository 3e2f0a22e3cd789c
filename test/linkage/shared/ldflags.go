// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !bazel

package shared

// Outside Bazel the library is named here and located through CGO_LDFLAGS.
// Bazel links it from cdeps.

// #cgo LDFLAGS: -lprobe_shared
import "C"
