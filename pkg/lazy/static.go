package lazy

import (
	"context"
	"fmt"
	"sync"
)

// StaticLoader serves chunks from memory.
type StaticLoader struct {
	mu     sync.RWMutex
	chunks map[string][]byte
	fail   map[string]error
}

// NewStaticLoader creates a loader over chunks, keyed by component name.
func NewStaticLoader(chunks map[string][]byte) *StaticLoader {
	l := &StaticLoader{
		chunks: make(map[string][]byte, len(chunks)),
		fail:   make(map[string]error),
	}
	for name, body := range chunks {
		l.chunks[name] = body
	}
	return l
}

// Set adds or replaces a chunk.
func (l *StaticLoader) Set(name string, body []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[name] = body
}

// Fail makes every load of name return err until cleared with Fail(name, nil).
func (l *StaticLoader) Fail(name string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.fail, name)
		return
	}
	l.fail[name] = err
}

// Load implements Loader.
func (l *StaticLoader) Load(ctx context.Context, name string) (*Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err, ok := l.fail[name]; ok {
		return nil, err
	}
	body, ok := l.chunks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, name)
	}
	return NewComponent(name, name, "text/javascript", body), nil
}
