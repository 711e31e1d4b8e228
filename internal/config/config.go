package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/routetable/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "routetable.toml"

	// OverlayConfigPattern is the file name pattern for environment overlays.
	OverlayConfigPattern = "routetable.%s.toml"

	// EnvOverlay names the overlay environment.
	EnvOverlay = "ROUTETABLE_ENV"
)

// Config represents the complete routetable.toml configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Router  RouterConfig  `toml:"router"`
	Loader  LoaderConfig  `toml:"loader"`
	Logging LoggingConfig `toml:"logging"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// New returns an empty configuration. Finalize fills the defaults.
func New() *Config {
	return &Config{}
}

// Load reads the configuration at path and merges the overlay selected by
// ROUTETABLE_ENV, if any. An empty path looks for routetable.toml in the
// working directory and its parents and falls back to an empty config when
// there is none.
func Load(path string) (*Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := Find(wd)
		if err != nil {
			return New(), nil
		}
		path = found
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := LoadFile(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// LoadFile reads a single configuration file without overlays.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigLoad).
			WithRoute(path).
			WithDetail(err.Error()).
			Wrap(err)
	}

	cfg := New()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigLoad).
			WithRoute(path).
			WithDetail("Failed to parse: " + err.Error()).
			WithSuggestion("Check that the file is valid TOML").
			Wrap(err)
	}
	cfg.configPath = path
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the
// configuration.
func (c *Config) Finalize() error {
	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"router", c.Router.Finalize},
		{"loader", c.Loader.Finalize},
		{"logging", c.Logging.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return errors.New(errors.CodeConfigInvalid).
				WithRoute("[" + s.name + "]").
				WithDetail(err.Error()).
				Wrap(err)
		}
	}
	return nil
}

// Merge applies values from overlay that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Router.Merge(&overlay.Router)
	c.Loader.Merge(&overlay.Loader)
	c.Logging.Merge(&overlay.Logging)
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Resolve makes a relative path from the config file relative to its
// directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.configPath == "" {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// Find walks up from startDir and returns the first routetable.toml.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return filepath.Join(dir, ConfigFileName), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s in %s or any parent directory", ConfigFileName, startDir)
		}
		dir = parent
	}
}

func overlayPath(dir string) string {
	env := os.Getenv(EnvOverlay)
	if env == "" {
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
