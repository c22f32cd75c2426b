package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Operations recorded on the audit channel.
const (
	OperationCreate = "CREATE"
	OperationDelete = "DELETE"
)

// Event is a single audit record describing a mutation.
type Event struct {
	Operation string    `json:"operation"`
	TenantID  string    `json:"tenant_id"`
	ItemID    int       `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
}

// Client is the subset of the redis client used to publish events.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher emits audit events to a redis channel. Publishing is
// fire-and-forget: failures are logged and never surfaced to callers.
type Publisher struct {
	client  Client
	channel string
	logger  *slog.Logger
}

func NewPublisher(client Client, channel string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Publish sends an event for the given mutation. A zero timestamp and an
// empty trace id are filled in before encoding.
func (p *Publisher) Publish(ctx context.Context, operation, tenantID string, itemID int) {
	event := Event{
		Operation: operation,
		TenantID:  tenantID,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
		TraceID:   uuid.NewString(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode audit event",
			"operation", operation,
			"tenant_id", tenantID,
			"error", err,
		)
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("failed to publish audit event",
			"operation", operation,
			"tenant_id", tenantID,
			"channel", p.channel,
			"error", err,
		)
	}
}
