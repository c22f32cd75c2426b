package main

import (
	"net/http"

	"github.com/pruebaingsoft/todos-service/internal/handler"
	"github.com/pruebaingsoft/todos-service/internal/metrics"
)

func setupRouter(todoHandler *handler.TodoHandler, metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /todos", todoHandler.List)
	mux.HandleFunc("POST /todos", todoHandler.Create)
	mux.HandleFunc("DELETE /todos/{id}", todoHandler.Delete)
	mux.HandleFunc("GET /breakers", todoHandler.Breakers)
	mux.HandleFunc("POST /admin/breakers/{name}/failures", todoHandler.InjectFailures)
	mux.HandleFunc("GET /metrics", metricsCollector.Handler())

	return mux
}
