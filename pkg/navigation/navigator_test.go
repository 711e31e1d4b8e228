package navigation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gatedLoader serves chunks from memory but holds loads of "Slow" until
// release is closed.
type gatedLoader struct {
	*lazy.StaticLoader
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{
		StaticLoader: lazy.NewStaticLoader(map[string][]byte{
			"Home":   []byte("home"),
			"MyPage": []byte("mypage"),
			"Post":   []byte("post"),
			"Login":  []byte("login"),
			"Broken": []byte("broken"),
			"Slow":   []byte("slow"),
		}),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (l *gatedLoader) Load(ctx context.Context, name string) (*lazy.Component, error) {
	if name == "Slow" {
		l.once.Do(func() { close(l.started) })
		select {
		case <-l.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return l.StaticLoader.Load(ctx, name)
}

func testTable(t *testing.T, loader lazy.Loader) *router.Table {
	t.Helper()
	reg := lazy.NewRegistry(loader)
	table, err := router.New([]router.Route{
		{Path: "/", Component: reg.Ref("Home")},
		{Path: "/login", Component: reg.Ref("Login")},
		{Path: "/broken", Component: reg.Ref("Broken")},
		{Path: "/slow", Component: reg.Ref("Slow")},
		{Path: "/mypage", Component: reg.Ref("MyPage"), Children: []router.Route{
			{Path: "/mypage", Redirect: "/mypage/post"},
			{Path: "post", Component: reg.Ref("Post")},
		}},
		{Path: "/a", Redirect: "/b"},
		{Path: "/b", Redirect: "/a"},
	}, router.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	return table
}

func TestNavigateMountsAfterRedirect(t *testing.T) {
	var mounts []*Mount
	nav := New(testTable(t, newGatedLoader()),
		WithLogger(quietLogger()),
		OnMount(func(m *Mount) { mounts = append(mounts, m) }),
	)

	out, err := nav.Navigate(context.Background(), "/mypage")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if out.Status != StatusMounted {
		t.Fatalf("Status = %s, want mounted", out.Status)
	}
	if out.Path != "/mypage/post" || out.Redirects != 1 {
		t.Errorf("Path = %q, Redirects = %d", out.Path, out.Redirects)
	}
	if want := []string{"/mypage", "/mypage/post"}; !reflect.DeepEqual(out.Trail, want) {
		t.Errorf("Trail = %v, want %v", out.Trail, want)
	}

	m := out.Mount
	if !m.Replace {
		t.Error("redirected mount should replace the history entry")
	}
	var names []string
	for _, c := range m.Components {
		names = append(names, c.Name)
	}
	if want := []string{"MyPage", "Post"}; !reflect.DeepEqual(names, want) {
		t.Errorf("components = %v, want %v", names, want)
	}
	if len(m.Layers) != len(m.Components) {
		t.Errorf("%d layers for %d components", len(m.Layers), len(m.Components))
	}
	if nav.Current() != m {
		t.Error("Current does not return the committed mount")
	}
	if len(mounts) != 1 || mounts[0] != m {
		t.Errorf("OnMount calls = %d", len(mounts))
	}
	if out.ID == "" || m.ID != out.ID {
		t.Errorf("ids: outcome %q, mount %q", out.ID, m.ID)
	}
}

func TestNavigateNotFound(t *testing.T) {
	nav := New(testTable(t, newGatedLoader()), WithLogger(quietLogger()))

	out, err := nav.Navigate(context.Background(), "/does-not-exist")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if out.Status != StatusNotFound || out.Cause != nil {
		t.Errorf("Status = %s, Cause = %v", out.Status, out.Cause)
	}
	if cur := nav.Current(); cur == nil || cur.Status != StatusNotFound || len(cur.Components) != 0 {
		t.Errorf("Current = %+v", cur)
	}
}

func TestNavigateRedirectLoopIsNotFound(t *testing.T) {
	nav := New(testTable(t, newGatedLoader()), WithLogger(quietLogger()))

	out, err := nav.Navigate(context.Background(), "/a")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if out.Status != StatusNotFound {
		t.Errorf("Status = %s, want not_found", out.Status)
	}
	if !errors.Is(out.Cause, router.ErrRedirectLoop) {
		t.Errorf("Cause = %v, want ErrRedirectLoop", out.Cause)
	}
}

func TestNavigateLoadFailureKeepsPreviousMount(t *testing.T) {
	loader := newGatedLoader()
	boom := errors.New("network down")
	loader.Fail("Broken", boom)
	nav := New(testTable(t, loader), WithLogger(quietLogger()))
	ctx := context.Background()

	home, err := nav.Navigate(ctx, "/")
	if err != nil {
		t.Fatalf("Navigate(/): %v", err)
	}

	_, err = nav.Navigate(ctx, "/broken")
	var le *lazy.LoadError
	if !errors.As(err, &le) || le.Name != "Broken" {
		t.Fatalf("err = %v, want *lazy.LoadError for Broken", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
	if nav.Current() != home.Mount {
		t.Errorf("Current = %+v, want previous mount", nav.Current())
	}

	loader.Fail("Broken", nil)
	out, err := nav.Navigate(ctx, "/broken")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.Status != StatusMounted || nav.Current().Path != "/broken" {
		t.Errorf("retry outcome = %+v", out)
	}
}

func TestNavigateLastNavigationWins(t *testing.T) {
	loader := newGatedLoader()
	defer close(loader.release)

	var mu sync.Mutex
	var mounted []string
	nav := New(testTable(t, loader),
		WithLogger(quietLogger()),
		OnMount(func(m *Mount) {
			mu.Lock()
			mounted = append(mounted, m.Path)
			mu.Unlock()
		}),
	)
	ctx := context.Background()

	type result struct {
		out *Outcome
		err error
	}
	slow := make(chan result, 1)
	go func() {
		out, err := nav.Navigate(ctx, "/slow")
		slow <- result{out, err}
	}()

	select {
	case <-loader.started:
	case <-time.After(2 * time.Second):
		t.Fatal("slow load never started")
	}

	out, err := nav.Navigate(ctx, "/login")
	if err != nil || out.Status != StatusMounted {
		t.Fatalf("Navigate(/login) = %+v, %v", out, err)
	}

	select {
	case r := <-slow:
		if !errors.Is(r.err, ErrSuperseded) {
			t.Errorf("older navigation err = %v, want ErrSuperseded", r.err)
		}
		if r.out != nil {
			t.Errorf("older navigation outcome = %+v, want nil", r.out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("older navigation did not settle")
	}

	if cur := nav.Current(); cur.Path != "/login" {
		t.Errorf("Current = %q, want /login", cur.Path)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(mounted, []string{"/login"}) {
		t.Errorf("mounted = %v, want only /login", mounted)
	}
	if nav.Generation() != 2 {
		t.Errorf("Generation = %d, want 2", nav.Generation())
	}
}

func TestNavigateCallerCancelled(t *testing.T) {
	loader := newGatedLoader()
	defer close(loader.release)
	nav := New(testTable(t, loader), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := nav.Navigate(ctx, "/slow")
		errc <- err
	}()
	<-loader.started
	cancel()

	err := <-errc
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrSuperseded) {
		t.Error("caller cancellation reported as superseded")
	}
	if nav.Current() != nil {
		t.Errorf("Current = %+v, want nil", nav.Current())
	}
}

func TestNavigateOptions(t *testing.T) {
	nav := New(testTable(t, newGatedLoader()), WithLogger(quietLogger()))

	out, err := nav.Navigate(context.Background(), "/login",
		WithQuery(map[string]string{"next": "/mypage"}),
		WithReplace(),
	)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	m := out.Mount
	if m.Query != "next=%2Fmypage" {
		t.Errorf("Query = %q", m.Query)
	}
	if !m.Replace {
		t.Error("Replace not set")
	}
	if m.URL() != "/login?next=%2Fmypage" {
		t.Errorf("URL = %q", m.URL())
	}
	if m.Requested != "/login" {
		t.Errorf("Requested = %q", m.Requested)
	}
}

func TestPrefetch(t *testing.T) {
	reg := lazy.NewRegistry(lazy.NewStaticLoader(map[string][]byte{
		"MyPage": []byte("mypage"),
		"Post":   []byte("post"),
	}))
	table := router.MustNew([]router.Route{
		{Path: "/mypage", Component: reg.Ref("MyPage"), Children: []router.Route{
			{Path: "/mypage", Redirect: "/mypage/post"},
			{Path: "post", Component: reg.Ref("Post")},
		}},
	}, router.WithLogger(quietLogger()))
	nav := New(table, WithLogger(quietLogger()))

	if err := nav.Prefetch(context.Background(), "/mypage"); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if !reg.Ref("MyPage").Loaded() || !reg.Ref("Post").Loaded() {
		t.Error("Prefetch did not load the chain")
	}
	if nav.Current() != nil || nav.Generation() != 0 {
		t.Error("Prefetch touched navigation state")
	}
	if err := nav.Prefetch(context.Background(), "/nope"); err != nil {
		t.Errorf("Prefetch(/nope) = %v", err)
	}
}
