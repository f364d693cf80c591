// Package config loads classkit settings.
//
// Settings are layered: built-in defaults, then a TOML or YAML file, then
// CLASSKIT_ environment variables. The merged map is decoded into Config.
//
//	[log]
//	level = "debug"     # debug, info, warn, error
//	format = "console"  # console or json
//
//	[script]
//	timeout = "5s"
//	call_limit = 10000000
//
//	[autoload]
//	dir = "classes"
//	namespaces = ["app"]
//	watch = true
package config
