// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && syslibs

package main

/*
#cgo LDFLAGS: -lm -ldl
#include <dlfcn.h>
#include <math.h>
*/
import "C"

import "fmt"

// forceLink makes the linker resolve sin from libm and dlerror from libdl.
// The values are printed but not checked.
func forceLink() {
	x := float64(C.sin(C.double(1)))

	var msg string
	if e := C.dlerror(); e != nil {
		msg = C.GoString(e)
	}

	fmt.Printf("%f %s\n", x, msg)
}
