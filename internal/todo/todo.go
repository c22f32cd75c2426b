package todo

import (
	"context"
	"log/slog"
	"time"

	"github.com/pruebaingsoft/todos-service/internal/audit"
	"github.com/pruebaingsoft/todos-service/internal/cache"
	"github.com/pruebaingsoft/todos-service/internal/gateway"
	"github.com/pruebaingsoft/todos-service/internal/store"
)

// Response sources for a list call.
const (
	SourceCache    = "cache"
	SourceStore    = "store"
	SourceFallback = "fallback"
)

// ListResponse is the read-path payload: the tenant's items plus metadata
// about where they came from and whether any part of the response is
// degraded.
type ListResponse struct {
	Items      []store.Item     `json:"items"`
	Source     string           `json:"source"`
	CacheHit   bool             `json:"cache_hit"`
	Enrichment gateway.UserInfo `json:"enrichment"`
	Degraded   bool             `json:"degraded"`
	Timestamp  time.Time        `json:"timestamp"`
}

// CreateResponse describes a newly created item.
type CreateResponse struct {
	ID               int       `json:"id"`
	Content          string    `json:"content"`
	CacheInvalidated bool      `json:"cache_invalidated"`
	Timestamp        time.Time `json:"timestamp"`
}

// Service coordinates the cache-aside protocol over the backing store,
// enriches reads through the users gateway, and emits audit events for
// mutations.
type Service struct {
	cache   *cache.Store
	store   store.Store
	users   *gateway.Gateway
	auditor *audit.Publisher
	logger  *slog.Logger
	ttl     time.Duration
}

func NewService(c *cache.Store, s store.Store, users *gateway.Gateway, auditor *audit.Publisher, logger *slog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{
		cache:   c,
		store:   s,
		users:   users,
		auditor: auditor,
		logger:  logger,
		ttl:     ttl,
	}
}

// List serves the tenant's collection, preferring the cache and falling
// back to the backing store. It never returns an error: a failed store
// load degrades to a best-effort response instead.
func (s *Service) List(ctx context.Context, tenantID string) ListResponse {
	resp := ListResponse{
		Source:    SourceStore,
		Timestamp: time.Now().UTC(),
	}
	key := cache.Key(tenantID)

	var collection store.Collection
	if s.cache.GetJSON(ctx, key, &collection) {
		resp.Source = SourceCache
		resp.CacheHit = true
	} else {
		loaded, err := s.store.Load(ctx, tenantID)
		if err != nil {
			s.logger.Error("backing store read failed, serving degraded response",
				"tenant_id", tenantID,
				"error", err,
			)
			resp.Source = SourceFallback
			resp.Degraded = true
			resp.Items = []store.Item{}
			return resp
		}
		collection = *loaded
		s.cache.Set(ctx, key, collection, s.ttl)
	}
	resp.Items = collection.SortedItems()

	resp.Enrichment = s.enrich(ctx, tenantID)
	if resp.Enrichment.Degraded {
		resp.Degraded = true
	}
	return resp
}

func (s *Service) enrich(ctx context.Context, tenantID string) gateway.UserInfo {
	outcome, err := s.users.Call(ctx, tenantID)
	if err != nil {
		s.logger.Warn("user enrichment unavailable",
			"tenant_id", tenantID,
			"error", err,
		)
		return gateway.UserInfo{Username: tenantID, Degraded: true}
	}
	info, ok := outcome.Payload.(gateway.UserInfo)
	if !ok {
		return gateway.UserInfo{Username: tenantID, Degraded: true}
	}
	if outcome.FallbackUsed {
		info.Degraded = true
	}
	return info
}

// Create appends a new item for the tenant and invalidates the cached
// collection.
func (s *Service) Create(ctx context.Context, tenantID, content string) (CreateResponse, error) {
	var created store.Item
	err := s.store.Update(ctx, tenantID, func(c *store.Collection) error {
		created = store.Item{ID: c.LastInsertedID, Content: content}
		c.Items[created.ID] = created
		c.LastInsertedID++
		return nil
	})
	if err != nil {
		return CreateResponse{}, err
	}

	invalidated := s.cache.Del(ctx, cache.Key(tenantID))
	s.auditor.Publish(ctx, audit.OperationCreate, tenantID, created.ID)

	return CreateResponse{
		ID:               created.ID,
		Content:          created.Content,
		CacheInvalidated: invalidated,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// Delete removes an item for the tenant; an absent id is a no-op. The
// cached collection is invalidated either way.
func (s *Service) Delete(ctx context.Context, tenantID string, id int) error {
	err := s.store.Update(ctx, tenantID, func(c *store.Collection) error {
		delete(c.Items, id)
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Del(ctx, cache.Key(tenantID))
	s.auditor.Publish(ctx, audit.OperationDelete, tenantID, id)
	return nil
}
