package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/listing-builder/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	batchesHandler := handlers.NewBatchesHandler(s.config, handlers.NewBatchRegistry())

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Batches: group an upload batch, then correct the result
		r.Post("/batches", batchesHandler.Create)
		r.Get("/batches/{id}", batchesHandler.Get)
		r.Delete("/batches/{id}", batchesHandler.Delete)
		r.Post("/batches/{id}/merge", batchesHandler.Merge)
		r.Post("/batches/{id}/split", batchesHandler.Split)
	})
}
