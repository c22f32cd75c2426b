package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestReceived    EventType = "request_received"
	EventResponseCompleted  EventType = "response_completed"
	EventCacheHit           EventType = "cache_hit"
	EventCacheMiss          EventType = "cache_miss"
	EventCacheError         EventType = "cache_error"
	EventFallbackUsed       EventType = "fallback_used"
	EventBreakerStateChange EventType = "breaker_state_change"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Operation  string
	Dependency string
	State      string
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues an event without blocking. Events are dropped when the buffer
// is full; metrics are diagnostics, never backpressure. A nil collector is
// a no-op so components can be wired without one.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests(event.Operation)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Operation, event.Duration, event.StatusCode)

	case EventCacheHit:
		c.metrics.RecordCacheHit()

	case EventCacheMiss:
		c.metrics.RecordCacheMiss()

	case EventCacheError:
		c.metrics.RecordCacheError()

	case EventFallbackUsed:
		c.metrics.RecordFallback(event.Dependency)

	case EventBreakerStateChange:
		c.metrics.UpdateBreakerState(event.Dependency, event.State)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
