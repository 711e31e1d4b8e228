package assets

// Resolver turns a component name into the URL path of its chunk.
type Resolver interface {
	// Chunk returns the URL path the browser fetches the component from.
	//
	// Example:
	//   resolver.Chunk("pages/HomePage") → "/chunks/pages/HomePage.a1b2c3d4.js"
	Chunk(name string) string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
	ext      string
}

// NewResolver creates a Resolver that looks names up in m and prepends
// prefix. Names missing from the manifest resolve to name+ext.
func NewResolver(m *Manifest, prefix, ext string) Resolver {
	return &manifestResolver{manifest: m, prefix: prefix, ext: ext}
}

func (r *manifestResolver) Chunk(name string) string {
	return r.prefix + r.manifest.Key(name, r.ext)
}

type passthrough struct {
	prefix string
	ext    string
}

// NewPassthroughResolver creates a resolver for unfingerprinted builds,
// where the chunk of "pages/HomePage" is prefix+"pages/HomePage"+ext.
func NewPassthroughResolver(prefix, ext string) Resolver {
	return &passthrough{prefix: prefix, ext: ext}
}

func (p *passthrough) Chunk(name string) string {
	return p.prefix + name + p.ext
}
