package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// NewRouter mounts the API with recovery, request ids, wide-event logging and metrics.
func NewRouter(s *Server) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/usage", s.GetUsage)
		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Use(sessionLogMiddleware)
			r.Post("/documents", s.UploadDocuments)
			r.Get("/documents", s.ListDocuments)
			r.Delete("/documents", s.ClearDocuments)
			r.Delete("/documents/{docID}", s.DeleteDocument)
			r.Get("/stats", s.GetStats)
			r.Post("/chat", s.Chat)
			r.Get("/history", s.GetHistory)
			r.Delete("/history", s.ClearHistory)
		})
	})
	return r
}
