// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linux

package elfcheck

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// hostArch asks the kernel, so that a 386 harness on an x86_64 host still
// expects x86_64 libraries from the host compiler.
func hostArch() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOARCH
	}
	return unix.ByteSliceToString(u.Machine[:])
}
