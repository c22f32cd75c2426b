// Package circuitbreaker implements the circuit breaker pattern for calls to
// external dependencies.
//
// A circuit breaker prevents cascading failures by short-circuiting calls to
// a failing dependency once its recent error rate crosses a threshold. It has
// three states:
//
//   - CLOSED: Normal operation, calls pass through
//   - OPEN: Dependency failing, calls short-circuited to the fallback
//   - HALF_OPEN: Testing recovery with a single probe call
//
// Failure rates are computed over a rolling window of time buckets; the
// breaker trips once the window holds at least VolumeThreshold calls with
// ErrorThresholdPercent of them failing.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.DefaultOptions(), hooks)
//	cb := registry.GetBreaker("users-api", fallback)
//	result, err := cb.Execute(ctx, id, func(ctx context.Context, input any) (any, error) {
//	    return client.Fetch(ctx, input.(string))
//	})
//	if result.UsedFallback {
//	    // degraded result
//	}
package circuitbreaker
