// Package assets maps component names to the fingerprinted chunk files a
// client build produced.
//
// The build writes a manifest.json next to the chunks:
//
//	{
//	  "pages/HomePage": "pages/HomePage.a1b2c3d4.js",
//	  "components/mypage/PostCardList": "components/mypage/PostCardList.e5f6a7b8.js"
//	}
//
// Loaders use the manifest to find a component's chunk, and the server uses
// a Resolver to tell the browser where to fetch it:
//
//	manifest, _ := assets.Load(os.DirFS("dist"), "manifest.json")
//	loader := lazy.NewFSLoader(os.DirFS("dist"), lazy.WithKeys(manifest.Keys(".js")))
//	resolver := assets.NewResolver(manifest, "/", ".js")
//	resolver.Chunk("pages/HomePage") // "/pages/HomePage.a1b2c3d4.js"
package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"sync"
)

// Manifest holds the mapping from component names to chunk keys.
// It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads a manifest file from fsys.
func Load(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a manifest: a JSON object of component name to chunk key.
func Parse(data []byte) (*Manifest, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	for name, key := range entries {
		if !fs.ValidPath(key) {
			return nil, fmt.Errorf("parse manifest: invalid chunk key %q for %q", key, name)
		}
	}
	return &Manifest{entries: entries}, nil
}

// Lookup returns the chunk key recorded for name.
func (m *Manifest) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.entries[name]
	return key, ok
}

// Key returns the chunk key for name, or name+ext when the manifest has no
// entry.
func (m *Manifest) Key(name, ext string) string {
	if key, ok := m.Lookup(name); ok {
		return key
	}
	return name + ext
}

// Keys returns a key function for loaders, falling back to name+ext.
func (m *Manifest) Keys(ext string) func(name string) string {
	return func(name string) string {
		return m.Key(name, ext)
	}
}

// Set adds or updates an entry.
func (m *Manifest) Set(name, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = key
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Names returns the component names in the manifest, sorted.
func (m *Manifest) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the names that have no entry, in the order given.
func (m *Manifest) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := m.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
