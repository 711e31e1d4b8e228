package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTable(t *testing.T) (*router.Table, *lazy.Registry) {
	t.Helper()
	reg := lazy.NewRegistry(lazy.NewStaticLoader(DemoChunks()), lazy.WithLogger(quietLogger()))
	table, err := NewTable(reg, quietLogger(), 0)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table, reg
}

func TestDeclaredPathsMatch(t *testing.T) {
	table, _ := newTestTable(t)

	tests := []struct {
		path   string
		layers []string
	}{
		{"/", []string{HomePage}},
		{"/article", []string{ArticlePage}},
		{"/login", []string{LoginPage}},
		{"/findid", []string{FindIDPage}},
		{"/signup", []string{SignupPage}},
		{"/presignup", []string{PreSignupPage}},
		{"/editor", []string{EditorPage}},
		{"/mypage/post", []string{MyPage, PostCardList}},
		{"/mypage/temp", []string{MyPage, TempCardList}},
		{"/adminPage", []string{AdminPage}},
		{"/adminPage/notice", []string{AdminPage, NoticeList}},
		{"/adminPage/notice/42", []string{AdminPage, NoticeDetail}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := table.Resolve(tt.path)
			if res.Kind != router.KindMatch {
				t.Fatalf("Kind = %v, want match", res.Kind)
			}
			if got := res.Components(); !reflect.DeepEqual(got, tt.layers) {
				t.Errorf("Components() = %v, want %v", got, tt.layers)
			}
		})
	}
}

func TestMyPageRedirect(t *testing.T) {
	table, _ := newTestTable(t)

	res := table.Resolve("/mypage")
	if res.Kind != router.KindRedirect || res.Redirect != "/mypage/post" {
		t.Fatalf("Resolve(/mypage) = %v %q, want redirect to /mypage/post", res.Kind, res.Redirect)
	}

	chase := table.Chase("/mypage")
	if chase.Err != nil {
		t.Fatalf("Chase err = %v", chase.Err)
	}
	if chase.Redirects != 1 || !reflect.DeepEqual(chase.Trail, []string{"/mypage", "/mypage/post"}) {
		t.Errorf("Redirects = %d, Trail = %v", chase.Redirects, chase.Trail)
	}
	if got := chase.Result.Components(); !reflect.DeepEqual(got, []string{MyPage, PostCardList}) {
		t.Errorf("Components() = %v", got)
	}
}

func TestNoticeDetailProps(t *testing.T) {
	table, _ := newTestTable(t)

	res := table.Resolve("/adminPage/notice/42")
	leaf := res.Leaf()
	if leaf == nil || leaf.Component.Name() != NoticeDetail {
		t.Fatalf("leaf = %+v", leaf)
	}
	if leaf.Props["id"] != "42" {
		t.Errorf("Props = %v, want id=42", leaf.Props)
	}

	var props struct {
		ID int `param:"id"`
	}
	if err := leaf.Decode(&props); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if props.ID != 42 {
		t.Errorf("ID = %d, want 42", props.ID)
	}

	if parent := res.Layers[0]; parent.Props != nil {
		t.Errorf("AdminPage props = %v, want nil", parent.Props)
	}
}

func TestUndeclaredPaths(t *testing.T) {
	table, _ := newTestTable(t)

	for _, path := range []string{
		"/does-not-exist",
		"/mypage/other",
		"/adminPage/notice/42/edit",
		"/Login",
	} {
		if res := table.Resolve(path); res.Kind != router.KindNoMatch {
			t.Errorf("Resolve(%q) = %v, want no_match", path, res.Kind)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	table, _ := newTestTable(t)

	for _, path := range []string{"/", "/mypage", "/adminPage/notice/7", "/nope"} {
		first := table.Resolve(path)
		second := table.Resolve(path)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Resolve(%q) differs between calls:\n%+v\n%+v", path, first, second)
		}
	}
}

func TestTableShape(t *testing.T) {
	table, reg := newTestTable(t)

	if w := table.Warnings(); len(w) != 0 {
		t.Errorf("Warnings() = %v", w)
	}
	if got := len(table.Routes()); got != 14 {
		t.Errorf("len(Routes()) = %d, want 14", got)
	}
	if got, want := reg.Names(), len(Components()); len(got) != want {
		t.Errorf("registry has %d components, want %d", len(got), want)
	}

	href, err := table.Href("admin-notice-detail", map[string]string{"id": "7"})
	if err != nil || href != "/adminPage/notice/7" {
		t.Errorf("Href = %q, %v", href, err)
	}
	if info, ok := table.Lookup("mypage-temp"); !ok || info.Component != TempCardList {
		t.Errorf("Lookup(mypage-temp) = %+v, %v", info, ok)
	}
}

func TestNoComponentLoadedByResolve(t *testing.T) {
	table, reg := newTestTable(t)

	table.Chase("/mypage")
	table.Resolve("/adminPage/notice/1")
	for _, name := range reg.Names() {
		if reg.Ref(name).Loaded() {
			t.Errorf("%s loaded by resolution", name)
		}
	}

	res := table.Chase("/mypage").Result
	for _, l := range res.Layers {
		if _, err := l.Component.Load(context.Background()); err != nil {
			t.Errorf("Load(%s): %v", l.Component.Name(), err)
		}
	}
	if !reg.Ref(MyPage).Loaded() || reg.Ref(HomePage).Loaded() {
		t.Error("only the mounted chain should be loaded")
	}
}

func TestDemoChunksCoverComponents(t *testing.T) {
	reg := lazy.NewRegistry(lazy.NewStaticLoader(DemoChunks()), lazy.WithLogger(quietLogger()))
	Routes(reg)
	if err := reg.Preload(context.Background()); err != nil {
		t.Errorf("Preload: %v", err)
	}
}

func TestExtendedTableDefects(t *testing.T) {
	reg := lazy.NewRegistry(lazy.NewStaticLoader(DemoChunks()))

	t.Run("duplicate sibling", func(t *testing.T) {
		routes := append(Routes(reg), router.Route{Path: "/login/", Component: reg.Ref(LoginPage)})
		_, err := router.New(routes, router.WithLogger(quietLogger()))
		var te *router.TableError
		if !errors.As(err, &te) || !te.Has(router.DefectDuplicateRoute) {
			t.Errorf("err = %v, want duplicate route defect", err)
		}
	})

	t.Run("redirect cycle", func(t *testing.T) {
		routes := append(Routes(reg),
			router.Route{Path: "/old", Redirect: "/older"},
			router.Route{Path: "/older", Redirect: "/old"},
		)
		table, err := router.New(routes, router.WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("router.New: %v", err)
		}
		chase := table.Chase("/old")
		if !errors.Is(chase.Err, router.ErrRedirectLoop) {
			t.Errorf("Chase err = %v, want redirect loop", chase.Err)
		}
		if chase.Result.Kind != router.KindNoMatch {
			t.Errorf("Kind = %v, want no_match", chase.Result.Kind)
		}
	})
}
