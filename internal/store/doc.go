// Package store defines the authoritative backing store for per-tenant
// collections, decoupled from any particular storage technology.
//
// The Store interface documents a get-or-create-default contract: the first
// Load for a tenant seeds a default collection. Update serializes
// read-modify-write cycles per tenant, which keeps item ids unique under
// concurrent creates. Memory is the in-process implementation used by the
// service.
package store
