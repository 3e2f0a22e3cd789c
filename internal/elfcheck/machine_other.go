// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build !linux

package elfcheck

import "runtime"

func hostArch() string {
	return runtime.GOARCH
}
