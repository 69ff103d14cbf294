// Package server exposes the engine over HTTP for intake, classification,
// commit, teaching, and simulation.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tidewater/inboxpilot/internal/engine"
	"github.com/tidewater/inboxpilot/internal/model"
)

// PersistFunc archives an item snapshot after each lifecycle change.
type PersistFunc func(ctx context.Context, item model.InboxItem) error

// Server wires the engine's operations onto a chi router.
type Server struct {
	engine  *engine.Engine
	persist PersistFunc
	logger  *slog.Logger
}

// New creates a server around an engine. persist may be nil.
func New(eng *engine.Engine, persist PersistFunc, logger *slog.Logger) *Server {
	return &Server{engine: eng, persist: persist, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/simulate", s.handleSimulate)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.handleListItems)
		r.Post("/", s.handleIntake)
		r.Get("/{id}", s.handleGetItem)
		r.Post("/{id}/classify", s.handleClassify)
		r.Post("/{id}/commit", s.handleCommit)
		r.Post("/{id}/focus", s.handleFocus)
	})

	r.Get("/guidelines", s.handleListGuidelines)
	r.Post("/guidelines", s.handleTeach)

	r.Get("/catalog", s.handleCatalog)
	r.Put("/policy", s.handleUpdatePolicy)

	return r
}
