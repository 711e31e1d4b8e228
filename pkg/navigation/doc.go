// Package navigation drives navigations against a route table.
//
// A Navigator turns a path into a mounted set of components:
//
//	nav := navigation.New(table, navigation.OnMount(render))
//	out, err := nav.Navigate(ctx, "/mypage")
//
// Navigate chases redirects, loads every component of the matched chain and
// only then commits the new mount. If a newer navigation starts before the
// loads settle, the older one returns ErrSuperseded and never mounts. A
// failed load leaves the previous mount in place; navigating again retries
// the load.
//
// Middleware wraps the navigation handler and is used for metrics and
// tracing (see package middleware).
package navigation
