// Package server exposes a route table over HTTP.
//
// Endpoints:
//
//	GET /api/routes                 table listing (JSON)
//	GET /api/resolve?path=&chase=1  resolution of one path (JSON)
//	GET /ws                         live navigation channel
//	GET /metrics                    Prometheus metrics, when enabled
//	GET /*                          static assets, else the app shell
//
// The shell fallback answers with the status the route table implies:
// 302 to the chased target for redirect routes, 404 for paths that match
// nothing, 200 otherwise.
//
// On /ws each connection gets its own navigation.Navigator. The client
// sends
//
//	{"type":"navigate","path":"/mypage","seq":1}
//
// and receives a "mount", "not_found" or "error" message with the same seq.
// Navigations overtaken by a newer one on the same connection get no reply.
package server
