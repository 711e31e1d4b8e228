// Package config loads routetable.toml.
//
// A base file is read, an optional overlay named routetable.<env>.toml is
// merged on top when ROUTETABLE_ENV is set, and Finalize then fills
// defaults, applies ROUTETABLE_* environment overrides and validates.
//
// # Configuration File Structure
//
//	[server]
//	addr = ":8080"
//	static_dir = "dist"
//	metrics = true
//	shutdown_timeout = "10s"
//
//	[router]
//	max_redirects = 5
//
//	[loader]
//	backend = "s3"          # static | fs | s3
//	bucket = "my-app-assets"
//	prefix = "chunks/"
//	region = "us-east-1"
//	max_chunk_size = "2MB"
//	load_timeout = "5s"
//	manifest = "dist/manifest.json"
//	public_path = "/chunks/"
//
//	[logging]
//	level = "info"          # debug | info | warn | error
//	format = "text"         # text | json
//
// # Usage
//
//	cfg, err := config.Load("routetable.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Finalize(); err != nil {
//	    log.Fatal(err)
//	}
package config
