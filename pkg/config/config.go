// Package config provides configuration management for dev-scripts. It
// handles loading, validating and saving the YAML settings file that feeds
// the build downloader. Flags override the loaded file, the file overrides
// built-in defaults; the merge happens once up front and the pipeline never
// re-reads configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JavaZeroo/dev-scripts/pkg/errors"
	"github.com/JavaZeroo/dev-scripts/pkg/fsutil"
)

// ConfigFileName is the well-known settings file searched for in the
// working directory and the user's home directory.
const ConfigFileName = ".dev_scripts_config.yml"

// Config represents the application configuration.
type Config struct {
	// Downloader holds the build downloader settings. The section key is
	// kept from the original scripts for config file compatibility.
	Downloader Downloader `yaml:"ms_downloader"`

	// Settings holds general application settings.
	Settings Settings `yaml:"settings"`
}

// Downloader configures the build-artifact downloader.
type Downloader struct {
	BaseURL          string        `yaml:"base_url"`
	DownloadDir      string        `yaml:"download_dir"`
	MaxWorkers       int           `yaml:"max_workers"`
	PythonVersion    string        `yaml:"python_version,omitempty"` // e.g. cp39 / cp310 / cp311
	Arch             string        `yaml:"arch"`
	Variant          string        `yaml:"variant"`
	BuildPrefix      string        `yaml:"build_prefix"`
	Retries          int           `yaml:"retries"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	Insecure         bool          `yaml:"insecure"`
	PostDownloadHook string        `yaml:"post_download_hook,omitempty"` // optional Tengo script
}

// Settings represents general application settings.
type Settings struct {
	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	DefaultBaseURL        = "https://repo.mindspore.cn/mindspore/mindspore/version/"
	DefaultDownloadDir    = "downloads"
	DefaultMaxWorkers     = 4
	DefaultArch           = "aarch64"
	DefaultVariant        = "unified"
	DefaultBuildPrefix    = "master_"
	DefaultRetries        = 4
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Downloader: Downloader{
			BaseURL:        DefaultBaseURL,
			DownloadDir:    DefaultDownloadDir,
			MaxWorkers:     DefaultMaxWorkers,
			Arch:           DefaultArch,
			Variant:        DefaultVariant,
			BuildPrefix:    DefaultBuildPrefix,
			Retries:        DefaultRetries,
			ConnectTimeout: DefaultConnectTimeout,
			ReadTimeout:    DefaultReadTimeout,
		},
		Settings: Settings{
			LogLevel: "info",
		},
	}
}

// FindConfigFile returns the first existing well-known config file, or an
// empty string when none exists.
func FindConfigFile() string {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ConfigFileName))
	}
	for _, path := range candidates {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// GetDefaultConfigPath returns where a new config file should be written.
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults, not an error; a file that exists but does not parse is an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigParse, "%s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the configuration to a file, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	if err := fsutil.EnsureFileDir(path); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrapf(errors.ErrConfigEncode, "%v", err)
	}
	return os.WriteFile(path, data, fsutil.FileModeDefault)
}

// Validate checks the configuration for contradictions before the pipeline
// is built from it.
func (c *Config) Validate() error {
	d := c.Downloader
	if d.BaseURL == "" {
		return errors.Wrap(errors.ErrConfigValidation, "base_url cannot be empty")
	}
	if u, err := url.Parse(d.BaseURL); err != nil || !u.IsAbs() {
		return errors.Wrapf(errors.ErrConfigValidation, "base_url %q must be absolute", d.BaseURL)
	}
	if d.DownloadDir == "" {
		return errors.Wrap(errors.ErrConfigValidation, "download_dir cannot be empty")
	}
	if d.MaxWorkers < 1 {
		return errors.Wrapf(errors.ErrConfigValidation, "max_workers must be >= 1, got %d", d.MaxWorkers)
	}
	if d.Retries < 1 {
		return errors.Wrapf(errors.ErrConfigValidation, "retries must be >= 1, got %d", d.Retries)
	}
	if d.PostDownloadHook != "" {
		if _, err := os.Stat(d.PostDownloadHook); err != nil {
			return errors.Wrapf(errors.ErrConfigValidation, "post_download_hook %s: %v", d.PostDownloadHook, err)
		}
	}
	return nil
}

// String renders the config as YAML for `config show`.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<unprintable config: %v>", err)
	}
	return string(data)
}
