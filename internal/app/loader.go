package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/routetable/internal/config"
	"github.com/vango-dev/routetable/internal/errors"
	"github.com/vango-dev/routetable/pkg/assets"
	"github.com/vango-dev/routetable/pkg/lazy"
)

// Environment variables holding static S3 credentials. Without them the
// client sends anonymous requests, which public buckets accept.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
)

// ChunkExt is the extension of chunks missing from the manifest.
const ChunkExt = ".js"

// LoadManifest reads the asset manifest named by cfg. It returns nil when
// none is configured.
func LoadManifest(cfg *config.LoaderConfig) (*assets.Manifest, error) {
	if cfg.Manifest == "" {
		return nil, nil
	}
	m, err := assets.Load(os.DirFS(filepath.Dir(cfg.Manifest)), filepath.Base(cfg.Manifest))
	if err != nil {
		return nil, loaderError(cfg, err)
	}
	return m, nil
}

// ChunkResolver returns the resolver for chunk URLs under cfg.PublicPath.
func ChunkResolver(cfg *config.LoaderConfig, manifest *assets.Manifest) assets.Resolver {
	if manifest == nil {
		return assets.NewPassthroughResolver(cfg.PublicPath, ChunkExt)
	}
	return assets.NewResolver(manifest, cfg.PublicPath, ChunkExt)
}

// NewLoader builds the chunk loader selected by cfg. cfg must be finalized.
// With a manifest, chunk keys come from it instead of name+".js".
func NewLoader(cfg *config.LoaderConfig, manifest *assets.Manifest, logger *slog.Logger) (lazy.Loader, error) {
	switch cfg.Backend {
	case config.BackendStatic, "":
		return lazy.NewStaticLoader(DemoChunks()), nil

	case config.BackendFS:
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return nil, loaderError(cfg, err)
		}
		if !info.IsDir() {
			return nil, loaderError(cfg, fmt.Errorf("%s is not a directory", cfg.Dir))
		}
		logger.Info("loading chunks from directory", "dir", cfg.Dir, "max_chunk_size", cfg.MaxChunkSizeBytes())
		opts := []lazy.FSOption{lazy.WithMaxSize(cfg.MaxChunkSizeBytes())}
		if manifest != nil {
			opts = append(opts, lazy.WithKeys(manifest.Keys(ChunkExt)))
		}
		return lazy.NewFSLoader(os.DirFS(cfg.Dir), opts...), nil

	case config.BackendS3:
		logger.Info("loading chunks from s3", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "region", cfg.Region)
		opts := []lazy.S3Option{lazy.WithS3MaxSize(cfg.MaxChunkSizeBytes())}
		if manifest != nil {
			opts = append(opts, lazy.WithS3Keys(manifest.Keys(ChunkExt)))
		}
		return lazy.NewS3Loader(NewS3Client(cfg), cfg.Bucket, cfg.Prefix, opts...), nil

	default:
		return nil, loaderError(cfg, fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}

// NewS3Client creates an S3 client for the loader configuration.
func NewS3Client(cfg *config.LoaderConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if creds, ok := staticCredentials(); ok {
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return creds, nil
			},
		))
	}
	return s3.New(opts)
}

func staticCredentials() (aws.Credentials, bool) {
	id := os.Getenv(EnvAccessKeyID)
	secret := os.Getenv(EnvSecretAccessKey)
	if id == "" || secret == "" {
		return aws.Credentials{}, false
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv(EnvSessionToken),
		Source:          "Environment",
	}, true
}

func loaderError(cfg *config.LoaderConfig, err error) error {
	return errors.New(errors.CodeLoaderBackend).
		WithRoute(string(cfg.Backend)).
		WithDetail(err.Error()).
		Wrap(err)
}

// NewRegistry wraps loader in a registry using the configured load timeout.
func NewRegistry(loader lazy.Loader, cfg *config.LoaderConfig, logger *slog.Logger) *lazy.Registry {
	opts := []lazy.RegistryOption{lazy.WithLogger(logger)}
	if d := cfg.LoadTimeoutDuration(); d > 0 {
		opts = append(opts, lazy.WithLoadTimeout(d))
	}
	return lazy.NewRegistry(loader, opts...)
}
