package cli

import (
	"github.com/JavaZeroo/dev-scripts/internal/logger"
	"github.com/JavaZeroo/dev-scripts/pkg/config"
)

// These variables will be set by the main package.
var (
	ConfigPath *string
	Verbose    *bool
)

// loadConfig resolves the configuration once: explicit --config path, then
// the well-known file locations, then built-in defaults. It also initializes
// the logger from the resolved level.
func loadConfig() (*config.Config, error) {
	path := ""
	if ConfigPath != nil {
		path = *ConfigPath
	}
	if path == "" {
		path = config.FindConfigFile()
	}

	var cfg *config.Config
	if path == "" {
		cfg = config.DefaultConfig()
	} else {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		logger.Debugf("loaded config from %s", path)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel)
	return cfg, nil
}
