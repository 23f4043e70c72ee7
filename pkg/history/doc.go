// Package history provides location sources for the navigation resolver.
//
// Memory is an in-process session history. Socket bridges to a browser's
// history over a WebSocket. WithBase mounts either under a base path so the
// application can be served from a sub-directory.
package history
