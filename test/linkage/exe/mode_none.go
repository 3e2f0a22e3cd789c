// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && none

package main

/*
#cgo CFLAGS: -I${SRCDIR}/../shared/csrc -I${SRCDIR}/../static/csrc
#include <stdio.h>
#include "shared.h"
#include "static.h"

// The Go runtime exits without flushing C stdio.
static void emit(void) {
	printf("%s\n", shared_get_string());
	printf("%s\n", static_get_string());
	fflush(stdout);
}
*/
import "C"

func emit() {
	C.emit()
}
