// Package config provides configuration parsing for navshell.
//
// The configuration lives in navshell.toml or navshell.json at the project
// root, or in an S3 object addressed as s3://bucket/key. It carries the
// ordered route manifest and the settings of the shell server.
//
// # Configuration File Structure
//
//	name = "Field Assistant"
//	base = "/"
//
//	[[routes]]
//	path = "/"
//	name = "home"
//	view = "HomeView"
//
//	[[routes]]
//	path = "/user/:id"
//	name = "user"
//	view = "UserView"
//
//	[server]
//	host = "0.0.0.0"
//	port = 8080
//	socketPath = "/_nav"
//
//	[metrics]
//	enabled = true
//	path = "/metrics"
//
//	[log]
//	level = "debug"
//	format = "json"
//
// A file without routes gets the built-in manifest (see DefaultRoutes).
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table, err := cfg.Table()
package config
