// Package todo implements the tenant-facing collection operations. Reads
// follow a cache-aside protocol against the backing store and are enriched
// with user profile data through a breaker-guarded gateway; writes mutate
// the store, invalidate the cached collection, and emit audit events.
package todo
