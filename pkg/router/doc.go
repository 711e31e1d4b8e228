// Package router implements the route table of a code-split single-page
// application.
//
// A Table is built once from a nested literal of Route values and is
// immutable afterwards. Resolving a path yields one of three results:
//
//   - KindMatch: the components to mount, outermost layout first
//   - KindRedirect: a target path the caller must resolve instead
//   - KindNoMatch: nothing in the table corresponds to the path
//
// # Route Paths
//
// Paths use the grammar of package pattern: literal segments and named
// parameters (":id"). A child path is relative to its parent unless it
// starts with "/":
//
//	{Path: "/mypage", Component: reg.Ref("pages/MyPage"), Children: []router.Route{
//	    {Path: "/mypage", Redirect: "/mypage/post"},    // bare parent → default child
//	    {Path: "post", Component: reg.Ref("components/mypage/PostCardList")},
//	}}
//
// # Matching
//
// Entries are tried in declaration order and the first structural match
// wins. An entry with children that matches a strict prefix of the path
// commits: its children are matched against the rest, and if none of them
// matches the result is KindNoMatch. When an entry matches the whole path,
// a redirect applies immediately; otherwise children that add no segments
// of their own are tried before the entry is mounted on its own.
//
// # Redirects
//
// Resolve never follows redirects. Chase does, up to a fixed number of hops
// (WithMaxRedirects, default 5), and reports ErrRedirectLoop when a path is
// revisited or the bound is exceeded.
//
// # Usage
//
//	table, err := router.New(routes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := table.Resolve("/adminPage/notice/42")
//	// res.Kind == router.KindMatch
//	// res.Leaf().Props["id"] == "42"
package router
