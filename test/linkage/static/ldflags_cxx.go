// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !bazel && !none && !system

package static

// The C++ half of the library needs the C++ runtime. The library is repeated
// so that it precedes -lstdc++ on the link line.

// #cgo LDFLAGS: -lprobe_static -lstdc++
import "C"
