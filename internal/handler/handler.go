package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pruebaingsoft/todos-service/internal/circuitbreaker"
	"github.com/pruebaingsoft/todos-service/internal/gateway"
	"github.com/pruebaingsoft/todos-service/internal/metrics"
	"github.com/pruebaingsoft/todos-service/internal/todo"
)

// TenantHeader carries the tenant identity on every collection request.
const TenantHeader = "X-Tenant-ID"

const defaultInjectedFailures = 6

type TodoHandler struct {
	logger           *slog.Logger
	service          *todo.Service
	registry         *circuitbreaker.Registry
	gateways         map[string]*gateway.Gateway
	metricsCollector *metrics.Collector
}

func NewTodoHandler(logger *slog.Logger, service *todo.Service, registry *circuitbreaker.Registry, gateways []*gateway.Gateway, collector *metrics.Collector) *TodoHandler {
	byName := make(map[string]*gateway.Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	return &TodoHandler{
		logger:           logger,
		service:          service,
		registry:         registry,
		gateways:         byName,
		metricsCollector: collector,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

type createRequest struct {
	Content string `json:"content"`
}

type injectRequest struct {
	Count int `json:"count"`
}

// List serves GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	h.instrument("list", w, r, func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := h.tenant(w, r)
		if !ok {
			return
		}

		resp := h.service.List(r.Context(), tenantID)
		writeJSON(w, http.StatusOK, resp)
	})
}

// Create serves POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.instrument("create", w, r, func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := h.tenant(w, r)
		if !ok {
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "content must not be empty", http.StatusBadRequest)
			return
		}

		resp, err := h.service.Create(r.Context(), tenantID, req.Content)
		if err != nil {
			h.logger.Error("create failed",
				slog.String("tenant_id", tenantID),
				slog.String("error", err.Error()))
			http.Error(w, "failed to create item", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	})
}

// Delete serves DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.instrument("delete", w, r, func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := h.tenant(w, r)
		if !ok {
			return
		}

		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "id must be an integer", http.StatusBadRequest)
			return
		}

		if err := h.service.Delete(r.Context(), tenantID, id); err != nil {
			h.logger.Error("delete failed",
				slog.String("tenant_id", tenantID),
				slog.Int("id", id),
				slog.String("error", err.Error()))
			http.Error(w, "failed to delete item", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// Breakers serves GET /breakers with a snapshot of every breaker's state.
func (h *TodoHandler) Breakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"breakers":  h.registry.Stats(),
		"timestamp": time.Now().UTC(),
	})
}

// InjectFailures serves POST /admin/breakers/{name}/failures, forcing
// synthetic failures into a named breaker so its transitions can be
// exercised without breaking the real dependency.
func (h *TodoHandler) InjectFailures(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	g, ok := h.gateways[name]
	if !ok {
		http.Error(w, "unknown breaker", http.StatusNotFound)
		return
	}

	req := injectRequest{Count: defaultInjectedFailures}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Count <= 0 {
		req.Count = defaultInjectedFailures
	}

	g.InjectFailures(req.Count)
	h.logger.Info("injected synthetic failures",
		slog.String("breaker", name),
		slog.Int("count", req.Count))

	var state string
	if cb, ok := h.registry.Lookup(name); ok {
		state = cb.State().String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"breaker":  name,
		"injected": req.Count,
		"state":    state,
	})
}

func (h *TodoHandler) tenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenantID == "" {
		http.Error(w, "missing "+TenantHeader+" header", http.StatusBadRequest)
		return "", false
	}
	return tenantID, true
}

func (h *TodoHandler) instrument(operation string, w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	clientIP := extractClientIP(r)

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("operation", operation))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Operation: operation,
	})

	start := time.Now()
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	next(wrapped, r)

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Operation:  operation,
		Duration:   time.Since(start),
		StatusCode: wrapped.statusCode,
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
