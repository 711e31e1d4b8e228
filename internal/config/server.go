package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerAddr            = "ROUTETABLE_SERVER_ADDR"
	EnvServerStaticDir       = "ROUTETABLE_SERVER_STATIC_DIR"
	EnvServerMetrics         = "ROUTETABLE_SERVER_METRICS"
	EnvServerShutdownTimeout = "ROUTETABLE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig configures the HTTP and WebSocket server.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `toml:"addr"`

	// StaticDir holds the built client. Empty serves the embedded shell.
	StaticDir string `toml:"static_dir"`

	// Metrics exposes /metrics.
	Metrics bool `toml:"metrics"`

	// ShutdownTimeout bounds graceful shutdown. Default: "10s"
	ShutdownTimeout string `toml:"shutdown_timeout"`

	shutdownTimeoutVal time.Duration
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return c.shutdownTimeoutVal
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay that differ from zero values.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Addr != "" {
		c.Addr = overlay.Addr
	}
	if overlay.StaticDir != "" {
		c.StaticDir = overlay.StaticDir
	}
	if overlay.Metrics {
		c.Metrics = true
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
}

func (c *ServerConfig) loadEnv() error {
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvServerStaticDir); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv(EnvServerMetrics); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvServerMetrics, err)
		}
		c.Metrics = b
	}
	if v := os.Getenv(EnvServerShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	return nil
}

func (c *ServerConfig) validate() error {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	c.shutdownTimeoutVal = d
	return nil
}
