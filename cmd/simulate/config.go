package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

const (
	profileCPU = "cpu"
	profileMem = "mem"
)

// simulationConfig holds the simulation parameters read from environment variables.
type simulationConfig struct {
	// Number of entities spawned at startup.
	Entities int `env:"SIMULATE_ENTITIES" envDefault:"10000"`

	// Number of fixed steps to simulate.
	Steps int `env:"SIMULATE_STEPS" envDefault:"600"`

	// Simulated time per step.
	Step time.Duration `env:"SIMULATE_STEP" envDefault:"16ms"`

	// Half-width of the square entities are expected to stay in.
	Bound float64 `env:"SIMULATE_BOUND" envDefault:"100"`

	// Seed for the spawn parameters.
	Seed uint64 `env:"SIMULATE_SEED" envDefault:"1"`

	// Profile to record while simulating ("", "cpu", "mem").
	Profile string `env:"SIMULATE_PROFILE"`

	// Directory profiles are written to.
	ProfilePath string `env:"SIMULATE_PROFILE_PATH" envDefault:"."`
}

func loadConfig() (simulationConfig, error) {
	cfg := simulationConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse simulation config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate simulation config")
	}

	return cfg, nil
}

func (cfg *simulationConfig) validate() error {
	if cfg.Entities < 0 {
		return eris.New("entity count cannot be negative")
	}
	if cfg.Steps <= 0 {
		return eris.New("step count must be positive")
	}
	if cfg.Step <= 0 || cfg.Step > time.Second {
		return eris.New("step duration must be in (0, 1s]")
	}
	if cfg.Bound <= 0 {
		return eris.New("bound must be positive")
	}
	switch cfg.Profile {
	case "", profileCPU, profileMem:
	default:
		return eris.Errorf("invalid profile: %s (must be '%s' or '%s')", cfg.Profile, profileCPU, profileMem)
	}
	return nil
}
