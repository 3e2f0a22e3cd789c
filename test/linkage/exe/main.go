// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build linkprobe

// Command exe prints the collaborator strings for the mode it was built
// with. The mode is chosen with build tags:
//
//	-tags linkprobe,none    C interfaces, printed with C stdio
//	-tags linkprobe,system  C interfaces, printed with the Go standard library
//	-tags linkprobe         C and class interfaces
//
// none wins when both none and system are set. Adding syslibs links libm and
// libdl and prints one more line. Under Bazel the bazel tag is added and the
// collaborator libraries come from cdeps rather than -l flags.
package main

func main() {
	emit()
	forceLink()
}
