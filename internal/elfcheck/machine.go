// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

package elfcheck

import "debug/elf"

var machines = map[string]elf.Machine{
	"x86_64":  elf.EM_X86_64,
	"amd64":   elf.EM_X86_64,
	"aarch64": elf.EM_AARCH64,
	"arm64":   elf.EM_AARCH64,
	"i686":    elf.EM_386,
	"386":     elf.EM_386,
	"riscv64": elf.EM_RISCV,
}

// HostMachine returns the ELF machine of the host, if it is known.
func HostMachine() (elf.Machine, bool) {
	m, ok := machines[hostArch()]
	return m, ok
}
