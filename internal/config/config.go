// Package config defines the simulator's configuration surface: defaults,
// a YAML file format, and validation, covering every option in
// spec.md §6's configuration table.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nikitadanilov/fs-repalg/internal/simulator"
)

// ErrConfiguration wraps every validation failure this package reports,
// so callers can distinguish a bad configuration from a run-time error
// with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// Config is the simulator's full configuration surface. YAML tags follow
// the names in spec.md §6; Radix and the verbose sub-flags are
// supplemented features carried over from the original's getopt surface
// (see SPEC_FULL.md §7).
type Config struct {
	Algorithm string `yaml:"algorithm"`
	Frames    uint64 `yaml:"frames"`
	VPages    uint64 `yaml:"vpages"`
	Objects   uint64 `yaml:"objects"`

	// Radix is the numeric base ParseUint parses in; 0 means auto-detect,
	// matching strtoull(optarg, &eoc, radix) with radix == 0 in the
	// original. cmd/fsreplay's percentage flags are parsed by the flag
	// package, which always auto-detects the base, and do not use it.
	Radix int `yaml:"radix"`

	SFIFOTailPercent uint16 `yaml:"sfifo_tail_percent"`
	TwoQKinPercent   uint16 `yaml:"twoq_kin_percent"`
	TwoQKoutPercent  uint16 `yaml:"twoq_kout_percent"`

	Verbose VerboseConfig `yaml:"verbose"`
}

// VerboseConfig is spec.md §6's verbose bitmask, spelled out as one bool
// per bit instead of a packed integer, since YAML has no native bitmask
// notation.
type VerboseConfig struct {
	Trace    bool `yaml:"trace"`
	Table    bool `yaml:"table"`
	Log      bool `yaml:"log"`
	Progress bool `yaml:"progress"`
}

// Flags packs cfg's verbose booleans into the bitmask simulator.Params
// expects.
func (cfg Config) Flags() simulator.VerboseFlags {
	var f simulator.VerboseFlags
	if cfg.Verbose.Trace {
		f |= simulator.VerboseTrace
	}
	if cfg.Verbose.Table {
		f |= simulator.VerboseTable
	}
	if cfg.Verbose.Log {
		f |= simulator.VerboseLog
	}
	if cfg.Verbose.Progress {
		f |= simulator.VerboseProgress
	}
	return f
}

// Default returns the configuration the original tool starts from before
// any flag or file overlay: lru, 256 frames, 1<<16 vpages and objects, no
// verbosity, SFIFO tail 50%, 2Q Kin 25% and Kout 50%.
func Default() Config {
	return Config{
		Algorithm:        "lru",
		Frames:           256,
		VPages:           1 << 16,
		Objects:          1 << 16,
		Radix:            0,
		SFIFOTailPercent: 50,
		TwoQKinPercent:   25,
		TwoQKoutPercent:  50,
	}
}

// Load reads a YAML configuration file at path, overlaying it onto
// Default(). A missing file is not an error: Default() is returned as
// is, matching a run with no configuration file supplied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
	}
	return cfg, nil
}

// ParseUint parses s as an unsigned integer in cfg.Radix, the supplemented
// numeric-option parsing spec.md §7 carries over from the original's -r
// flag (strtoull(optarg, &eoc, radix)). Radix 0 means auto-detect, the
// same convention strconv.ParseUint's base 0 already uses (0x.. is hex,
// 0.. is octal, otherwise decimal).
func (cfg Config) ParseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, cfg.Radix, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return v, nil
}

// Validate checks cfg against the constraints simulator.New and
// simulator.ByName themselves enforce, so a bad configuration is reported
// before any arena is allocated.
func (cfg Config) Validate() error {
	if _, err := simulator.ByName(cfg.Algorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if cfg.Frames == 0 {
		return fmt.Errorf("%w: frames must be > 0", ErrConfiguration)
	}
	if cfg.VPages == 0 {
		return fmt.Errorf("%w: vpages must be > 0", ErrConfiguration)
	}
	if cfg.Objects == 0 {
		return fmt.Errorf("%w: objects must be > 0", ErrConfiguration)
	}
	if cfg.SFIFOTailPercent > 100 {
		return fmt.Errorf("%w: sfifo_tail_percent must be <= 100", ErrConfiguration)
	}
	if cfg.TwoQKinPercent > 100 {
		return fmt.Errorf("%w: twoq_kin_percent must be <= 100", ErrConfiguration)
	}
	if cfg.TwoQKoutPercent > 100 {
		return fmt.Errorf("%w: twoq_kout_percent must be <= 100", ErrConfiguration)
	}
	return nil
}

// Params builds the simulator.Params cfg describes. Validate should be
// called first; Params does not re-check bounds.
func (cfg Config) Params() simulator.Params {
	return simulator.Params{
		NrFrames:         cfg.Frames,
		NrVPages:         cfg.VPages,
		NrObjects:        cfg.Objects,
		SFIFOTailPercent: cfg.SFIFOTailPercent,
		TwoQKin:          cfg.TwoQKinPercent,
		TwoQKout:         cfg.TwoQKoutPercent,
		Verbose:          cfg.Flags(),
	}
}
