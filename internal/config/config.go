// Package config provides centralized configuration loaded from
// environment variables (and an optional .env file picked up by the CLI).
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the defaults every command falls back on when the
// corresponding flag is not given.
type Config struct {
	// LedgerPath is the default ledger file operated on.
	LedgerPath string `envconfig:"LEDGER_FILE" default:"fantasy.json"`

	// Strict makes the standalone audit use the strict ingest tolerance.
	Strict bool `envconfig:"LEDGER_STRICT" default:"false"`

	// AssumeYes skips interactive confirmation on destructive operations.
	AssumeYes bool `envconfig:"LEDGER_ASSUME_YES" default:"false"`

	// Debug raises the log level.
	Debug bool `envconfig:"DEBUG" default:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
