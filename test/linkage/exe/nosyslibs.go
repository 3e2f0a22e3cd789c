// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !syslibs

package main

func forceLink() {}
