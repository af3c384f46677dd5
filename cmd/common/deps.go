// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/jonesrussell/goingest/internal/config"
	"github.com/jonesrussell/goingest/internal/logger"
)

// CommandDeps holds common dependencies for all commands.
// Use this instead of context.Value for type-safe dependency injection.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads configuration and creates the logger. The debug
// flag forces debug-level development logging regardless of config.
func NewCommandDeps(cfgFile string, debug bool) (CommandDeps, error) {
	// .env first so its variables are visible to Viper. Absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logger
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}

	log, err := logger.New(&logCfg)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}
	if err := deps.Validate(); err != nil {
		return CommandDeps{}, fmt.Errorf("%w: %w", ErrInvalidDeps, err)
	}

	return deps, nil
}
