package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
)

const (
	EnvLoaderBackend      = "ROUTETABLE_LOADER_BACKEND"
	EnvLoaderDir          = "ROUTETABLE_LOADER_DIR"
	EnvLoaderBucket       = "ROUTETABLE_LOADER_BUCKET"
	EnvLoaderPrefix       = "ROUTETABLE_LOADER_PREFIX"
	EnvLoaderRegion       = "ROUTETABLE_LOADER_REGION"
	EnvLoaderEndpoint     = "ROUTETABLE_LOADER_ENDPOINT"
	EnvLoaderPathStyle    = "ROUTETABLE_LOADER_PATH_STYLE"
	EnvLoaderMaxChunkSize = "ROUTETABLE_LOADER_MAX_CHUNK_SIZE"
	EnvLoaderLoadTimeout  = "ROUTETABLE_LOADER_LOAD_TIMEOUT"
	EnvLoaderManifest     = "ROUTETABLE_LOADER_MANIFEST"
	EnvLoaderPublicPath   = "ROUTETABLE_LOADER_PUBLIC_PATH"
)

// Backend selects where component chunks are read from.
type Backend string

const (
	// BackendStatic serves built-in placeholder chunks.
	BackendStatic Backend = "static"

	// BackendFS reads chunks from a directory.
	BackendFS Backend = "fs"

	// BackendS3 reads chunks from an S3 bucket.
	BackendS3 Backend = "s3"
)

// LoaderConfig configures the lazy component loader.
type LoaderConfig struct {
	// Backend is static, fs or s3. Default: "static"
	Backend Backend `toml:"backend"`

	// Dir is the chunk directory for the fs backend.
	Dir string `toml:"dir"`

	// Bucket, Prefix, Region and Endpoint configure the s3 backend.
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`

	// PathStyle addresses the bucket in the path, for S3-compatible stores.
	PathStyle bool `toml:"path_style"`

	// MaxChunkSize is a human size such as "2MB". Default: "4MB"
	MaxChunkSize string `toml:"max_chunk_size"`

	// LoadTimeout bounds a single chunk load. Default: "10s"
	LoadTimeout string `toml:"load_timeout"`

	// Manifest is a JSON file mapping component names to fingerprinted
	// chunk keys. Optional.
	Manifest string `toml:"manifest"`

	// PublicPath is the URL prefix browsers fetch chunks from. Default: "/"
	PublicPath string `toml:"public_path"`

	maxChunkSizeVal int64
	loadTimeoutVal  time.Duration
}

// MaxChunkSizeBytes returns the parsed chunk size limit.
func (c *LoaderConfig) MaxChunkSizeBytes() int64 {
	return c.maxChunkSizeVal
}

// LoadTimeoutDuration returns the parsed load timeout.
func (c *LoaderConfig) LoadTimeoutDuration() time.Duration {
	return c.loadTimeoutVal
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *LoaderConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies values from overlay that differ from zero values.
func (c *LoaderConfig) Merge(overlay *LoaderConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.PathStyle {
		c.PathStyle = true
	}
	if size, err := units.FromHumanSize(overlay.MaxChunkSize); err == nil {
		c.MaxChunkSize = overlay.MaxChunkSize
		c.maxChunkSizeVal = size
	}
	if overlay.LoadTimeout != "" {
		c.LoadTimeout = overlay.LoadTimeout
	}
	if overlay.Manifest != "" {
		c.Manifest = overlay.Manifest
	}
	if overlay.PublicPath != "" {
		c.PublicPath = overlay.PublicPath
	}
}

func (c *LoaderConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendStatic
	}
	if c.MaxChunkSize == "" {
		c.MaxChunkSize = "4MB"
	}
	if c.LoadTimeout == "" {
		c.LoadTimeout = "10s"
	}
	if c.PublicPath == "" {
		c.PublicPath = "/"
	}
}

func (c *LoaderConfig) loadEnv() error {
	if v := os.Getenv(EnvLoaderBackend); v != "" {
		c.Backend = Backend(v)
	}
	if v := os.Getenv(EnvLoaderDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvLoaderBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvLoaderPrefix); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv(EnvLoaderRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvLoaderEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLoaderPathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLoaderPathStyle, err)
		}
		c.PathStyle = b
	}
	if v := os.Getenv(EnvLoaderMaxChunkSize); v != "" {
		c.MaxChunkSize = v
	}
	if v := os.Getenv(EnvLoaderLoadTimeout); v != "" {
		c.LoadTimeout = v
	}
	if v := os.Getenv(EnvLoaderManifest); v != "" {
		c.Manifest = v
	}
	if v := os.Getenv(EnvLoaderPublicPath); v != "" {
		c.PublicPath = v
	}
	return nil
}

func (c *LoaderConfig) validate() error {
	switch c.Backend {
	case BackendStatic:
	case BackendFS:
		if c.Dir == "" {
			return fmt.Errorf("dir required for backend %q", c.Backend)
		}
	case BackendS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket required for backend %q", c.Backend)
		}
		if c.Region == "" {
			return fmt.Errorf("region required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxChunkSize)
	if err != nil {
		return fmt.Errorf("invalid max_chunk_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_chunk_size must be positive")
	}
	c.maxChunkSizeVal = size

	d, err := time.ParseDuration(c.LoadTimeout)
	if err != nil {
		return fmt.Errorf("invalid load_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("load_timeout must be positive")
	}
	c.loadTimeoutVal = d

	if !strings.HasPrefix(c.PublicPath, "/") || !strings.HasSuffix(c.PublicPath, "/") {
		return fmt.Errorf("public_path %q must start and end with /", c.PublicPath)
	}
	return nil
}
