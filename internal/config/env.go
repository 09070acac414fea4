package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Defaults holds collector defaults taken from the environment. Each field
// can still be overridden by its command-line flag.
type Defaults struct {
	IntervalMS   int  `env:"MEMC_INTERVAL_MS" envDefault:"1000"`
	MaxSnapshots int  `env:"MEMC_MAX_SNAPSHOTS" envDefault:"0"`
	UseSmaps     bool `env:"MEMC_SMAPS" envDefault:"false"`
	Compact      bool `env:"MEMC_COMPACT" envDefault:"false"`
}

// EnvDefaults parses collector defaults from the environment.
func EnvDefaults() (*Defaults, error) {
	var d Defaults
	if err := env.Parse(&d); err != nil {
		return nil, fmt.Errorf("failed to parse environment defaults: %w", err)
	}
	if d.IntervalMS <= 0 {
		return nil, fmt.Errorf("MEMC_INTERVAL_MS must be positive, got %d", d.IntervalMS)
	}
	if d.MaxSnapshots < 0 {
		return nil, fmt.Errorf("MEMC_MAX_SNAPSHOTS must not be negative, got %d", d.MaxSnapshots)
	}
	return &d, nil
}
