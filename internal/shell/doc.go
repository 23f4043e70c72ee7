// Package shell serves a single-page application shell whose navigation is
// resolved on the server.
//
// Every page load under the base path returns the same HTML document, with
// the route resolved for the requested location embedded in it. The page
// then opens a WebSocket at the socket path and the server attaches a
// dedicated resolver to it: link clicks arrive as navigate frames, browser
// back and forward arrive as pops, and each published route is streamed
// back as a route frame.
//
// Additional endpoints:
//
//	GET {base}/_routes                  route table as JSON
//	GET {base}/_resolve?location=/x     resolution of one location
//	GET {base}/_shell.js                browser client
//	GET /metrics                        Prometheus metrics (when enabled)
package shell
