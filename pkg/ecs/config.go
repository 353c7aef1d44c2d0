package ecs

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	// DefaultInitialCapacity is the number of records a bucket is allocated with on first use.
	DefaultInitialCapacity = 4096
	// DefaultGrowFactor is the factor a full bucket's capacity is multiplied by.
	DefaultGrowFactor = 16
	// MinGrowFactor is the smallest accepted grow factor. Smaller values are clamped.
	MinGrowFactor = 2
	// DefaultMaxComponentTypes bounds the number of distinct component types a container serves.
	DefaultMaxComponentTypes = 64
)

// containerConfig holds the container configuration read from environment variables.
type containerConfig struct {
	// Number of records allocated for a bucket the first time its type is used.
	InitialCapacity int `env:"CONTAINER_INITIAL_CAPACITY" envDefault:"4096"`

	// Capacity multiplier applied when a bucket is full.
	GrowFactor int `env:"CONTAINER_GROW_FACTOR" envDefault:"16"`

	// Upper bound on the type index of any component stored in the container.
	MaxComponentTypes int `env:"CONTAINER_MAX_COMPONENT_TYPES" envDefault:"64"`

	// Byte budget for all bucket buffers. 0 means unlimited.
	MemoryLimit uint64 `env:"CONTAINER_MEMORY_LIMIT" envDefault:"0"`
}

// loadConfig loads the container configuration from environment variables.
func loadConfig() (containerConfig, error) {
	cfg := containerConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse container config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate container config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *containerConfig) validate() error {
	if cfg.InitialCapacity <= 0 {
		return eris.New("initial capacity must be positive")
	}
	if cfg.MaxComponentTypes <= 0 {
		return eris.New("max component types must be positive")
	}
	return nil
}

func (cfg *containerConfig) applyToOptions(opt *Options) {
	opt.InitialCapacity = cfg.InitialCapacity
	opt.GrowFactor = cfg.GrowFactor
	opt.MaxComponentTypes = cfg.MaxComponentTypes
	opt.MemoryLimit = cfg.MemoryLimit
}

// Options configures a Container. Zero values fall back to the environment configuration.
type Options struct {
	InitialCapacity   int             // Records allocated per bucket on first use
	GrowFactor        int             // Capacity multiplier when a bucket is full, clamped to MinGrowFactor
	MaxComponentTypes int             // Size of the bucket vector
	MemoryLimit       uint64          // Byte budget for bucket buffers, 0 is unlimited
	Logger            *zerolog.Logger // Diagnostics sink, defaults to a no-op logger
}

func newDefaultOptions() Options {
	return Options{
		InitialCapacity:   DefaultInitialCapacity,
		GrowFactor:        DefaultGrowFactor,
		MaxComponentTypes: DefaultMaxComponentTypes,
		MemoryLimit:       0,
		Logger:            nil,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.InitialCapacity != 0 {
		opt.InitialCapacity = newOpt.InitialCapacity
	}
	if newOpt.GrowFactor != 0 {
		opt.GrowFactor = newOpt.GrowFactor
	}
	if newOpt.MaxComponentTypes != 0 {
		opt.MaxComponentTypes = newOpt.MaxComponentTypes
	}
	if newOpt.MemoryLimit != 0 {
		opt.MemoryLimit = newOpt.MemoryLimit
	}
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
}

// validate checks that all options are usable.
func (opt *Options) validate() error {
	if opt.InitialCapacity <= 0 {
		return eris.New("initial capacity must be positive")
	}
	if opt.MaxComponentTypes <= 0 {
		return eris.New("max component types must be positive")
	}
	return nil
}
