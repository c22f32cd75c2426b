package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pruebaingsoft/todos-service/internal/circuitbreaker"
	"github.com/pruebaingsoft/todos-service/internal/metrics"
)

// CallFunc performs the actual remote call for a dependency.
type CallFunc func(ctx context.Context, input string) (any, error)

// Outcome is the result of a dependency call. When the breaker served a
// fallback instead of the real payload, Degraded and FallbackUsed are set
// and Reason carries the underlying cause.
type Outcome struct {
	Payload      any
	Degraded     bool
	FallbackUsed bool
	Reason       string
}

// Gateway wraps a single downstream dependency behind a named circuit
// breaker obtained from the shared registry.
type Gateway struct {
	name      string
	breaker   *circuitbreaker.CircuitBreaker
	call      CallFunc
	logger    *slog.Logger
	collector *metrics.Collector
}

func New(name string, registry *circuitbreaker.Registry, call CallFunc, fallback circuitbreaker.Fallback, logger *slog.Logger, collector *metrics.Collector) *Gateway {
	return &Gateway{
		name:      name,
		breaker:   registry.GetBreaker(name, fallback),
		call:      call,
		logger:    logger,
		collector: collector,
	}
}

func (g *Gateway) Name() string {
	return g.name
}

// Call executes the dependency call through the breaker. A fallback served
// by the breaker is reported as a degraded outcome, not an error; an error
// is returned only when the call fails and no fallback is registered.
func (g *Gateway) Call(ctx context.Context, input string) (Outcome, error) {
	result, err := g.breaker.Execute(ctx, input, func(ctx context.Context, in any) (any, error) {
		return g.call(ctx, in.(string))
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("dependency %s: %w", g.name, err)
	}

	if result.UsedFallback {
		reason := ""
		if result.Cause != nil {
			reason = result.Cause.Error()
		}
		g.logger.Warn("serving fallback response",
			"dependency", g.name,
			"reason", reason,
		)
		g.collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventFallbackUsed,
			Dependency: g.name,
		})
		return Outcome{
			Payload:      result.Value,
			Degraded:     true,
			FallbackUsed: true,
			Reason:       reason,
		}, nil
	}

	return Outcome{Payload: result.Value}, nil
}

// InjectFailures records n synthetic failures on the underlying breaker.
func (g *Gateway) InjectFailures(n int) {
	g.breaker.ForceFailures(n)
}
