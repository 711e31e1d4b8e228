package lazy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRefLoadMemoizes(t *testing.T) {
	loader := NewStaticLoader(map[string][]byte{"pages/HomePage": []byte("home")})
	ref := NewRef("pages/HomePage", loader)

	if ref.Loaded() {
		t.Fatal("ref loaded before first use")
	}

	first, err := ref.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := ref.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("second Load returned a different component")
	}
	if got := ref.Attempts(); got != 1 {
		t.Errorf("Attempts = %d, want 1", got)
	}
	if !ref.Loaded() {
		t.Error("Loaded = false after successful load")
	}
	if first.Name != "pages/HomePage" || string(first.Body) != "home" || first.Size != 4 {
		t.Errorf("unexpected component %+v", first)
	}
	if len(first.Digest) != 64 {
		t.Errorf("Digest = %q, want sha256 hex", first.Digest)
	}
}

func TestRefFailureNotCached(t *testing.T) {
	loader := NewStaticLoader(map[string][]byte{"pages/LoginPage": []byte("login")})
	boom := errors.New("network down")
	loader.Fail("pages/LoginPage", boom)
	ref := NewRef("pages/LoginPage", loader)

	_, err := ref.Load(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if le.Name != "pages/LoginPage" || !errors.Is(err, boom) {
		t.Errorf("LoadError = %+v", le)
	}
	if ref.Loaded() {
		t.Error("failed load was cached")
	}

	loader.Fail("pages/LoginPage", nil)
	if _, err := ref.Load(context.Background()); err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if got := ref.Attempts(); got != 2 {
		t.Errorf("Attempts = %d, want 2", got)
	}
}

func TestRefMissingChunk(t *testing.T) {
	ref := NewRef("pages/Nope", NewStaticLoader(nil))
	if _, err := ref.Load(context.Background()); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("error = %v, want ErrChunkNotFound", err)
	}
}

func TestRefNilComponent(t *testing.T) {
	ref := NewRef("x", LoaderFunc(func(context.Context, string) (*Component, error) {
		return nil, nil
	}))
	if _, err := ref.Load(context.Background()); !errors.Is(err, ErrNilComponent) {
		t.Errorf("error = %v, want ErrNilComponent", err)
	}
}

// blockingLoader blocks every load until release is closed.
type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingLoader() *blockingLoader {
	return &blockingLoader{started: make(chan struct{}), release: make(chan struct{})}
}

func (l *blockingLoader) Load(ctx context.Context, name string) (*Component, error) {
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
		return NewComponent(name, name, "text/javascript", []byte(name)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefConcurrentLoadsShareFetch(t *testing.T) {
	loader := newBlockingLoader()
	ref := NewRef("pages/EditorPage", loader)

	const n = 8
	results := make([]*Component, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ref.Load(context.Background())
		}(i)
	}

	<-loader.started
	close(loader.release)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Load %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("Load %d returned a different component", i)
		}
	}
	if got := ref.Attempts(); got != 1 {
		t.Errorf("Attempts = %d, want 1", got)
	}
}

func TestRefCancelledCallerDoesNotAbortFetch(t *testing.T) {
	loader := newBlockingLoader()
	ref := NewRef("pages/ArticlePage", loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ref.Load(ctx)
		done <- err
	}()

	<-loader.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Load error = %v, want context.Canceled", err)
	}

	close(loader.release)
	c, err := ref.Load(context.Background())
	if err != nil {
		t.Fatalf("Load after cancel: %v", err)
	}
	if c.Name != "pages/ArticlePage" {
		t.Errorf("Name = %q", c.Name)
	}
	if got := ref.Attempts(); got != 1 {
		t.Errorf("Attempts = %d, want 1", got)
	}
}

func TestRefCancelledBeforeStart(t *testing.T) {
	ref := NewRef("x", NewStaticLoader(map[string][]byte{"x": nil}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ref.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if got := ref.Attempts(); got != 0 {
		t.Errorf("Attempts = %d, want 0", got)
	}
}

func TestRefTimeout(t *testing.T) {
	loader := newBlockingLoader()
	ref := NewRef("slow", loader, WithTimeout(20*time.Millisecond))

	_, err := ref.Load(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Errorf("error = %T, want *LoadError", err)
	}
}
