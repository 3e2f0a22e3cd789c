// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

// Package config loads the harness configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/uber/linkprobe/internal/variant"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "linkprobe.yaml"

// Config is the harness configuration.
type Config struct {
	// Root is the module root holding test/linkage.
	Root string `yaml:"root"`
	// Out receives one directory per case.
	Out       string    `yaml:"out"`
	Toolchain Toolchain `yaml:"toolchain"`
	// Runs is how many times each executable is run to check determinism.
	Runs int `yaml:"runs"`
	// Jobs bounds the number of cases built at once.
	Jobs  int    `yaml:"jobs"`
	Cases []Case `yaml:"cases"`
}

type Toolchain struct {
	CC  string `yaml:"cc"`
	CXX string `yaml:"cxx"`
	AR  string `yaml:"ar"`
	Go  string `yaml:"go"`
}

// Case is a variant as written in the file.
type Case struct {
	Name    string   `yaml:"name"`
	Flags   []string `yaml:"flags"`
	Swap    bool     `yaml:"swap"`
	SysLibs bool     `yaml:"syslibs"`
}

// Default returns the configuration used when no file is present. The
// toolchain honours CC, CXX, AR and GO from the environment.
func Default() Config {
	jobs := runtime.NumCPU()
	if jobs > 4 {
		jobs = 4
	}
	return Config{
		Root: ".",
		Out:  filepath.Join("out", "linkprobe"),
		Toolchain: Toolchain{
			CC:  envOr("CC", "cc"),
			CXX: envOr("CXX", "c++"),
			AR:  envOr("AR", "ar"),
			Go:  envOr("GO", "go"),
		},
		Runs: 3,
		Jobs: jobs,
	}
}

// Load reads path on top of Default. An empty path loads DefaultFile if it
// exists and the defaults otherwise.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return cfg, nil
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.mergeWith(&parsed)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// mergeWith copies the non-zero values of other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Root != "" {
		c.Root = other.Root
	}
	if other.Out != "" {
		c.Out = other.Out
	}
	if other.Toolchain.CC != "" {
		c.Toolchain.CC = other.Toolchain.CC
	}
	if other.Toolchain.CXX != "" {
		c.Toolchain.CXX = other.Toolchain.CXX
	}
	if other.Toolchain.AR != "" {
		c.Toolchain.AR = other.Toolchain.AR
	}
	if other.Toolchain.Go != "" {
		c.Toolchain.Go = other.Toolchain.Go
	}
	if other.Runs != 0 {
		c.Runs = other.Runs
	}
	if other.Jobs != 0 {
		c.Jobs = other.Jobs
	}
	if len(other.Cases) > 0 {
		c.Cases = other.Cases
	}
}

// Validate checks the values Load cannot default.
func (c Config) Validate() error {
	var errs []error
	if c.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be at least 1, got %d", c.Runs))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	seen := make(map[string]bool, len(c.Cases))
	for _, cs := range c.Cases {
		if seen[cs.Name] {
			errs = append(errs, fmt.Errorf("duplicate case %q", cs.Name))
		}
		seen[cs.Name] = true
		if err := cs.Variant().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (cs Case) Variant() variant.Variant {
	return variant.Variant{
		Name:    cs.Name,
		Flags:   cs.Flags,
		Swap:    cs.Swap,
		SysLibs: cs.SysLibs,
	}
}

// Variants returns the configured cases, or the full matrix when the file
// names none.
func (c Config) Variants() []variant.Variant {
	if len(c.Cases) == 0 {
		return variant.Matrix()
	}
	out := make([]variant.Variant, 0, len(c.Cases))
	for _, cs := range c.Cases {
		out = append(out, cs.Variant())
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
