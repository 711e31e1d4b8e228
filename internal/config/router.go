package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvRouterMaxRedirects = "ROUTETABLE_ROUTER_MAX_REDIRECTS"

	// DefaultMaxRedirects is the redirect hop bound.
	DefaultMaxRedirects = 5
)

// RouterConfig configures route resolution.
type RouterConfig struct {
	// MaxRedirects bounds a redirect chase. Default: 5
	MaxRedirects int `toml:"max_redirects"`
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *RouterConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay that differ from zero values.
func (c *RouterConfig) Merge(overlay *RouterConfig) {
	if overlay.MaxRedirects != 0 {
		c.MaxRedirects = overlay.MaxRedirects
	}
}

func (c *RouterConfig) loadDefaults() {
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
}

func (c *RouterConfig) loadEnv() error {
	if v := os.Getenv(EnvRouterMaxRedirects); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRouterMaxRedirects, err)
		}
		c.MaxRedirects = n
	}
	return nil
}

func (c *RouterConfig) validate() error {
	if c.MaxRedirects < 1 {
		return fmt.Errorf("max_redirects must be at least 1, got %d", c.MaxRedirects)
	}
	return nil
}
