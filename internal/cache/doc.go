// Package cache implements the cache side of the cache-aside pattern over a
// redis backend.
//
// All operations are best-effort: a backend error on Get resolves to a miss,
// and errors on Set/Del are logged and swallowed. Values are stored as JSON
// with a per-entry TTL. The backing store stays authoritative; cached
// collections are derived, disposable copies that writers invalidate rather
// than update in place.
package cache
