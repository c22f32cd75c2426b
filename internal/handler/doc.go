// Package handler implements the HTTP surface of the service: the tenant
// collection endpoints, the breaker inspection and failure-injection
// endpoints, and the request logging and metrics instrumentation around
// them.
package handler
