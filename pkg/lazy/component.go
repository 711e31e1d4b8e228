package lazy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Component describes a loaded view chunk.
type Component struct {
	// Name is the component identity used by the route table.
	Name string

	// Key is the storage key the chunk was read from.
	Key string

	// ContentType is the chunk's media type, if known.
	ContentType string

	// Version is a backend-specific revision (S3 ETag, file mod time).
	Version string

	// Size is len(Body).
	Size int64

	// Digest is the hex-encoded SHA-256 of Body.
	Digest string

	// Body is the chunk content.
	Body []byte

	// LoadedAt is when the chunk finished loading.
	LoadedAt time.Time
}

// NewComponent builds a Component and computes its size and digest.
func NewComponent(name, key, contentType string, body []byte) *Component {
	sum := sha256.Sum256(body)
	return &Component{
		Name:        name,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(body)),
		Digest:      hex.EncodeToString(sum[:]),
		Body:        body,
		LoadedAt:    time.Now(),
	}
}

// Loader fetches the chunk for a component name.
type Loader interface {
	Load(ctx context.Context, name string) (*Component, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, name string) (*Component, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, name string) (*Component, error) {
	return f(ctx, name)
}

// Loader errors.
var (
	ErrChunkNotFound = errors.New("chunk not found")
	ErrChunkTooLarge = errors.New("chunk exceeds size limit")
	ErrNilComponent  = errors.New("loader returned no component")
)

// LoadError reports a failed deferred load. Navigation treats it as
// recoverable: the previous view stays mounted and a retry reloads.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("lazy: load %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
