// Package gateway wraps calls to downstream dependencies (the users and
// auth APIs) behind named circuit breakers. Each Gateway pairs an HTTP
// client with a breaker from the shared registry and a fallback payload,
// so callers always receive either a live response or a clearly marked
// degraded one.
package gateway
