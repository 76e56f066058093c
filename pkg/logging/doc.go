// Package logging provides structured logging for mcp-okta-support.
//
// It is a thin layer over Go's standard log/slog package: a single text
// handler with level filtering, plus a subsystem attribute on every entry so
// log lines can be grouped by component (Bootstrap, Config, Okta, Server,
// RateLimit, ...).
//
// Initialize once at startup:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
// then log from anywhere:
//
//	logging.Info("Okta", "client initialized for %s", orgURL)
//	logging.Error("Server", err, "tool registration failed")
//
// All functions are safe for concurrent use.
package logging
