// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe && !none && !system

package main

import (
	"fmt"

	"github.com/uber/linkprobe/test/linkage/shared"
	"github.com/uber/linkprobe/test/linkage/static"
)

func emit() {
	fmt.Println(shared.GetString())
	fmt.Println(static.GetString())
	fmt.Println(shared.New().GetString())
	fmt.Println(static.New().GetString())
}
