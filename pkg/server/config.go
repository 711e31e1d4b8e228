package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ServerConfig configures the HTTP and WebSocket server.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string

	// StaticDir serves built assets. Its index.html, when present, is the
	// app shell. Empty means assets are not served and a built-in shell is used.
	StaticDir string

	// Metrics exposes /metrics.
	Metrics bool

	// WebSocket buffers and limits.
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	SendBuffer      int

	// CheckOrigin validates WebSocket upgrade origins. Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Keepalive: a ping is sent every PingInterval and the connection is
	// dropped when no pong arrives within PongWait.
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration

	// HTTP server timeouts.
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		MaxMessageSize:    4096,
		SendBuffer:        64,
		CheckOrigin:       SameOriginCheck,
		PingInterval:      54 * time.Second,
		PongWait:          60 * time.Second,
		WriteWait:         10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *ServerConfig) withDefaults() *ServerConfig {
	d := DefaultServerConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.SendBuffer == 0 {
		out.SendBuffer = d.SendBuffer
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.PingInterval == 0 {
		out.PingInterval = d.PingInterval
	}
	if out.PongWait == 0 {
		out.PongWait = d.PongWait
	}
	if out.WriteWait == 0 {
		out.WriteWait = d.WriteWait
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	return &out
}

// ValidateConfig reports settings that cannot work together.
func (c *ServerConfig) ValidateConfig() error {
	var errs []error
	if c.PingInterval >= c.PongWait {
		errs = append(errs, errors.New("PingInterval must be shorter than PongWait"))
	}
	if c.MaxMessageSize < 0 {
		errs = append(errs, errors.New("MaxMessageSize must not be negative"))
	}
	if c.SendBuffer < 0 {
		errs = append(errs, errors.New("SendBuffer must not be negative"))
	}
	return errors.Join(errs...)
}

// SameOriginCheck accepts WebSocket upgrades whose Origin host matches the
// request host, and requests without an Origin header.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}
