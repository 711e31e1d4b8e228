package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/routetable/internal/config"
	rterrors "github.com/vango-dev/routetable/internal/errors"
	"github.com/vango-dev/routetable/pkg/lazy"
)

func finalized(t *testing.T, c config.LoaderConfig) *config.LoaderConfig {
	t.Helper()
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return &c
}

func clearLoaderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvLoaderBackend, config.EnvLoaderDir, config.EnvLoaderBucket,
		config.EnvLoaderPrefix, config.EnvLoaderRegion, config.EnvLoaderEndpoint,
		config.EnvLoaderPathStyle, config.EnvLoaderMaxChunkSize, config.EnvLoaderLoadTimeout,
		config.EnvLoaderManifest, config.EnvLoaderPublicPath,
		EnvAccessKeyID, EnvSecretAccessKey, EnvSessionToken,
	} {
		t.Setenv(k, "")
	}
}

func TestNewLoader_Static(t *testing.T) {
	clearLoaderEnv(t)
	loader, err := NewLoader(finalized(t, config.LoaderConfig{}), nil, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	c, err := loader.Load(context.Background(), NoticeDetail)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != NoticeDetail || c.Size == 0 {
		t.Errorf("component = %+v", c)
	}
}

func TestNewLoader_FS(t *testing.T) {
	clearLoaderEnv(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pages"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pages", "HomePage.js"), []byte("export default {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pages", "EditorPage.js"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := finalized(t, config.LoaderConfig{Backend: config.BackendFS, Dir: dir, MaxChunkSize: "1KB"})
	loader, err := NewLoader(cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if _, err := loader.Load(context.Background(), HomePage); err != nil {
		t.Errorf("Load(HomePage): %v", err)
	}
	if _, err := loader.Load(context.Background(), EditorPage); !errors.Is(err, lazy.ErrChunkTooLarge) {
		t.Errorf("Load(EditorPage) = %v, want ErrChunkTooLarge", err)
	}
	if _, err := loader.Load(context.Background(), LoginPage); !errors.Is(err, lazy.ErrChunkNotFound) {
		t.Errorf("Load(LoginPage) = %v, want ErrChunkNotFound", err)
	}
}

func TestNewLoader_FSMissingDir(t *testing.T) {
	clearLoaderEnv(t)
	cfg := finalized(t, config.LoaderConfig{Backend: config.BackendFS, Dir: filepath.Join(t.TempDir(), "nope")})

	_, err := NewLoader(cfg, nil, quietLogger())
	var re *rterrors.RouteError
	if !errors.As(err, &re) || re.Code != rterrors.CodeLoaderBackend {
		t.Errorf("err = %v, want %s", err, rterrors.CodeLoaderBackend)
	}
}

func TestNewLoader_S3(t *testing.T) {
	clearLoaderEnv(t)
	cfg := finalized(t, config.LoaderConfig{
		Backend:  config.BackendS3,
		Bucket:   "assets",
		Prefix:   "chunks/",
		Region:   "eu-west-1",
		Endpoint: "http://localhost:9000",
	})

	loader, err := NewLoader(cfg, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	s3l, ok := loader.(*lazy.S3Loader)
	if !ok {
		t.Fatalf("loader = %T, want *lazy.S3Loader", loader)
	}
	if got := s3l.Key(PostCardList); got != "chunks/components/mypage/PostCardList.js" {
		t.Errorf("Key = %q", got)
	}
}

func TestNewLoader_Manifest(t *testing.T) {
	clearLoaderEnv(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pages"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pages", "HomePage.3f2a.js"), []byte("export default {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(manifestPath, []byte(`{"pages/HomePage": "pages/HomePage.3f2a.js"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := finalized(t, config.LoaderConfig{Backend: config.BackendFS, Dir: dir, Manifest: manifestPath, PublicPath: "/chunks/"})
	manifest, err := LoadManifest(cfg)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	loader, err := NewLoader(cfg, manifest, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	c, err := loader.Load(context.Background(), HomePage)
	if err != nil {
		t.Fatalf("Load(HomePage): %v", err)
	}
	if c.Key != "pages/HomePage.3f2a.js" {
		t.Errorf("Key = %q", c.Key)
	}

	chunks := ChunkResolver(cfg, manifest)
	if got := chunks.Chunk(HomePage); got != "/chunks/pages/HomePage.3f2a.js" {
		t.Errorf("Chunk(HomePage) = %q", got)
	}
	if got := chunks.Chunk(LoginPage); got != "/chunks/pages/LoginPage.js" {
		t.Errorf("Chunk(LoginPage) = %q", got)
	}
}

func TestLoadManifest(t *testing.T) {
	clearLoaderEnv(t)
	m, err := LoadManifest(finalized(t, config.LoaderConfig{}))
	if m != nil || err != nil {
		t.Errorf("LoadManifest(unset) = %v, %v", m, err)
	}

	cfg := finalized(t, config.LoaderConfig{Manifest: filepath.Join(t.TempDir(), "missing.json")})
	_, err = LoadManifest(cfg)
	var re *rterrors.RouteError
	if !errors.As(err, &re) || re.Code != rterrors.CodeLoaderBackend {
		t.Errorf("err = %v, want %s", err, rterrors.CodeLoaderBackend)
	}

	if got := ChunkResolver(cfg, nil).Chunk(HomePage); got != "/pages/HomePage.js" {
		t.Errorf("passthrough Chunk = %q", got)
	}
}

func TestNewS3Client(t *testing.T) {
	clearLoaderEnv(t)
	cfg := &config.LoaderConfig{Region: "us-east-2", Endpoint: "http://minio:9000", PathStyle: true}

	opts := NewS3Client(cfg).Options()
	if opts.Region != "us-east-2" || !opts.UsePathStyle {
		t.Errorf("Region = %q UsePathStyle = %v", opts.Region, opts.UsePathStyle)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://minio:9000" {
		t.Errorf("BaseEndpoint = %v", opts.BaseEndpoint)
	}
	if opts.Credentials != nil {
		t.Error("credentials set without environment keys")
	}

	t.Setenv(EnvAccessKeyID, "AKID")
	t.Setenv(EnvSecretAccessKey, "secret")
	opts = NewS3Client(cfg).Options()
	if opts.Credentials == nil {
		t.Fatal("credentials not set from environment")
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKID" || creds.SecretAccessKey != "secret" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestNewRegistry(t *testing.T) {
	clearLoaderEnv(t)
	cfg := finalized(t, config.LoaderConfig{LoadTimeout: "1s"})
	loader, err := NewLoader(cfg, nil, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(loader, cfg, quietLogger())
	if _, err := NewTable(reg, quietLogger(), 3); err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := reg.Preload(context.Background()); err != nil {
		t.Errorf("Preload: %v", err)
	}
}
