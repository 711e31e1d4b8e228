package app

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/routetable/pkg/lazy"
	"github.com/vango-dev/routetable/pkg/router"
)

// Component chunk keys. A key is the chunk's path under the loader root
// without its extension.
const (
	HomePage      = "pages/HomePage"
	ArticlePage   = "pages/ArticlePage"
	LoginPage     = "pages/LoginPage"
	FindIDPage    = "pages/FindIdPage"
	SignupPage    = "pages/SignupPage"
	PreSignupPage = "pages/PreSignupPage"
	EditorPage    = "pages/EditorPage"
	MyPage        = "pages/MyPage"
	PostCardList  = "components/mypage/PostCardList"
	TempCardList  = "components/mypage/TempCardList"
	AdminPage     = "pages/AdminPage"
	NoticeList    = "components/admin/NoticeList"
	NoticeDetail  = "components/admin/NoticeDetail"
)

// Components lists every chunk key the table references, in declaration
// order.
func Components() []string {
	return []string{
		HomePage, ArticlePage, LoginPage, FindIDPage, SignupPage, PreSignupPage,
		EditorPage, MyPage, PostCardList, TempCardList, AdminPage, NoticeList,
		NoticeDetail,
	}
}

// Routes returns the declared routes with component handles from reg.
func Routes(reg *lazy.Registry) []router.Route {
	return []router.Route{
		{Path: "/", Name: "home", Component: reg.Ref(HomePage)},
		{Path: "/article", Name: "article", Component: reg.Ref(ArticlePage)},
		{Path: "/login", Name: "login", Component: reg.Ref(LoginPage)},
		{Path: "/findid", Name: "findid", Component: reg.Ref(FindIDPage)},
		{Path: "/signup", Name: "signup", Component: reg.Ref(SignupPage)},
		{Path: "/presignup", Name: "presignup", Component: reg.Ref(PreSignupPage)},
		{Path: "/editor", Name: "editor", Component: reg.Ref(EditorPage)},
		{
			Path:      "/mypage",
			Name:      "mypage",
			Component: reg.Ref(MyPage),
			Children: []router.Route{
				{Path: "/mypage", Redirect: "/mypage/post"},
				{Path: "post", Name: "mypage-post", Component: reg.Ref(PostCardList)},
				{Path: "temp", Name: "mypage-temp", Component: reg.Ref(TempCardList)},
			},
		},
		{
			Path:      "/adminPage",
			Name:      "admin",
			Component: reg.Ref(AdminPage),
			Children: []router.Route{
				{Path: "notice", Name: "admin-notice", Component: reg.Ref(NoticeList)},
				{Path: "notice/:id", Name: "admin-notice-detail", Component: reg.Ref(NoticeDetail), Props: true},
			},
		},
	}
}

// NewTable builds the application's route table over reg.
func NewTable(reg *lazy.Registry, logger *slog.Logger, maxRedirects int) (*router.Table, error) {
	opts := []router.Option{router.WithLogger(logger)}
	if maxRedirects > 0 {
		opts = append(opts, router.WithMaxRedirects(maxRedirects))
	}
	return router.New(Routes(reg), opts...)
}

// DemoChunks returns a placeholder chunk for every component, for running
// without built assets.
func DemoChunks() map[string][]byte {
	chunks := make(map[string][]byte, len(Components()))
	for _, name := range Components() {
		chunks[name] = []byte(fmt.Sprintf("export default { name: %q };\n", name))
	}
	return chunks
}
