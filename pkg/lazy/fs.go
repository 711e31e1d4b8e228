package lazy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
)

// FSLoader reads chunks from a file system. The chunk for component
// "pages/HomePage" is the file "pages/HomePage.js" (see WithExtension).
type FSLoader struct {
	fsys    fs.FS
	ext     string
	keys    func(name string) string
	maxSize int64
}

// FSOption configures an FSLoader.
type FSOption func(*FSLoader)

// WithExtension sets the file extension appended to component names.
func WithExtension(ext string) FSOption {
	return func(l *FSLoader) {
		l.ext = ext
	}
}

// WithKeys maps component names to file names with fn instead of
// appending the extension, as when reading a fingerprinted build through
// an asset manifest.
func WithKeys(fn func(name string) string) FSOption {
	return func(l *FSLoader) {
		l.keys = fn
	}
}

// WithMaxSize rejects chunks larger than n bytes. Zero disables the check.
func WithMaxSize(n int64) FSOption {
	return func(l *FSLoader) {
		l.maxSize = n
	}
}

// NewFSLoader creates a loader over fsys.
func NewFSLoader(fsys fs.FS, opts ...FSOption) *FSLoader {
	l := &FSLoader{fsys: fsys, ext: ".js"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements Loader.
func (l *FSLoader) Load(ctx context.Context, name string) (*Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := path.Clean(name) + l.ext
	if l.keys != nil {
		key = l.keys(name)
	}
	if !fs.ValidPath(key) {
		return nil, fmt.Errorf("invalid chunk key %q", key)
	}

	f, err := l.fsys.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, key)
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if l.maxSize > 0 && info.Size() > l.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrChunkTooLarge, key, info.Size())
	}

	// The file may grow after Stat, so the read itself is bounded too.
	var r io.Reader = f
	if l.maxSize > 0 {
		r = io.LimitReader(f, l.maxSize+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if l.maxSize > 0 && int64(len(body)) > l.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrChunkTooLarge, key, l.maxSize)
	}

	c := NewComponent(name, key, contentTypeFor(path.Ext(key)), body)
	c.Version = strconv.FormatInt(info.ModTime().UnixNano(), 36)
	return c, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".js", ".mjs":
		return "text/javascript"
	case ".wasm":
		return "application/wasm"
	case ".html":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
