// Package okta implements the Okta API client used by the MCP server.
//
// The package is organized around a single dispatcher (Client.Request) that
// owns authentication, rate limiting, and error classification. Domain
// managers for users, applications, and system logs sit on top of the
// dispatcher and add endpoint knowledge, input validation, and response
// shaping; they hold no state of their own.
//
// All errors returned by this package are *Error values carrying a Kind tag,
// classified once from the HTTP status code at the dispatcher boundary.
package okta
