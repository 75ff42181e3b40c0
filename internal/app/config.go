package app

import (
	"errors"
	"fmt"
	"os"

	"speechpdf/internal/config"
)

// DefaultConfigPath is read when no --config flag is given.
const DefaultConfigPath = "config.json"

// ErrConfigCreated is returned by ResolveConfig after it wrote a default
// config file that the user should edit before running again.
var ErrConfigCreated = errors.New("default config created")

// ResolveConfig loads the effective configuration:
//   - an explicit path is loaded and must parse;
//   - otherwise ./config.json is loaded when present;
//   - otherwise, with no override flags, a default config.json is written and
//     ErrConfigCreated returned;
//   - otherwise defaults are used.
//
// Environment and explicit flags are applied on top, then the result is
// validated. The returned path is the file that was loaded, if any.
func ResolveConfig(path string, fv *config.FlagValues) (config.Config, string, error) {
	var (
		cfg    config.Config
		loaded string
		err    error
	)
	switch {
	case path != "":
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, "", fmt.Errorf("failed to load config '%s': %w", path, err)
		}
		loaded = path
	default:
		_, statErr := os.Stat(DefaultConfigPath)
		switch {
		case statErr == nil:
			cfg, err = config.Load(DefaultConfigPath)
			if err != nil {
				return cfg, "", fmt.Errorf("failed to load existing %s: %w", DefaultConfigPath, err)
			}
			loaded = DefaultConfigPath
		case os.IsNotExist(statErr):
			if fv == nil || !fv.AnySet() {
				if err := config.SaveDefault(DefaultConfigPath); err != nil {
					return cfg, "", fmt.Errorf("failed to write default config: %w", err)
				}
				return config.DefaultConfig(), DefaultConfigPath, ErrConfigCreated
			}
			cfg = config.DefaultConfig()
		default:
			return cfg, "", fmt.Errorf("failed to stat %s: %w", DefaultConfigPath, statErr)
		}
	}

	config.ApplyEnv(&cfg)
	if fv != nil {
		config.ApplyFlags(&cfg, fv)
	}
	if err := config.Validate(&cfg); err != nil {
		return cfg, loaded, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loaded, nil
}
