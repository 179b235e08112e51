package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsplit/internal/api"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/extract"
	"github.com/dgallion1/docsplit/internal/pathstore"
	"github.com/dgallion1/docsplit/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	store := pathstore.NewChunkStore(ps, cfg.PathstoreRoot)

	// Keyword enrichment is optional; a nil interface disables it.
	var (
		enricher pipeline.Enricher
		stats    *extract.LatencyStats
		model    string
		closeGen = func() {}
	)
	if cfg.Keywords.Enabled {
		gen, closer := newGenerator(cfg)
		closeGen = closer
		stats = extract.NewLatencyStats(cfg.StatsWindow)
		ke, err := extract.NewKeywordEnricher(gen, cfg.Keywords, stats, log)
		if err != nil {
			log.Error("invalid keyword configuration", "error", err)
			os.Exit(1)
		}
		enricher = ke
		model = ke.Model()
	}

	orch := pipeline.NewOrchestrator(cfg, store, enricher, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, store, stats, model, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}

		orch.Stop()
		closeGen()
		ps.Close()
	}()

	log.Info("starting docsplit",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"keywords", cfg.Keywords.Enabled,
		"llm_provider", cfg.LLMProvider,
		"path_mode", cfg.Splitter.PathMode,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newGenerator builds the LLM client named by cfg.LLMProvider. Validate has
// already rejected providers that cannot generate.
func newGenerator(cfg config.Config) (extract.Generator, func()) {
	if cfg.LLMProvider == config.ProviderOpenAI {
		return extract.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), func() {}
	}
	c := extract.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	return c, c.Close
}
