// Package api exposes splitting, ingestion and stored documents over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/extract"
	"github.com/dgallion1/docsplit/internal/pathstore"
	"github.com/dgallion1/docsplit/internal/pipeline"
)

// DocumentStore reads and deletes stored documents.
type DocumentStore interface {
	ListDocuments(ctx context.Context, userID string, limit int) ([]pathstore.DocumentMeta, error)
	ListChunks(ctx context.Context, userID, docID string, limit int) ([]pathstore.ChunkRecord, error)
	DeleteDocument(ctx context.Context, userID, docID string) (pathstore.DeleteResult, error)
}

// Server is the HTTP API server for docsplit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         DocumentStore
	stats        *extract.LatencyStats
	model        string
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// keyword generation is disabled.
func NewServer(orch *pipeline.Orchestrator, docs DocumentStore, stats *extract.LatencyStats, model string, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		stats:        stats,
		model:        model,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/split", s.handleSplit)
		r.Post("/api/headings", s.handleHeadings)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}/chunks", s.handleListChunks)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
