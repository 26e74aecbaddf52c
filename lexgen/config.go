package lexgen

import (
	"log/slog"
	"runtime"
)

// Config holds the configuration for compilation.
type Config struct {
	// Concurrency bounds how many document units are emitted in parallel.
	// Default: runtime.GOMAXPROCS(0)
	Concurrency int

	// SkipGuards disables the is<Name> and validate<Name> functions that are
	// otherwise generated for every record and object definition.
	SkipGuards bool

	// Logger receives progress at debug level. Default: slog.Default()
	Logger *slog.Logger
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	var result Config
	if cfg != nil {
		result = *cfg
	}

	if result.Concurrency <= 0 {
		result.Concurrency = runtime.GOMAXPROCS(0)
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}

	return &result
}
