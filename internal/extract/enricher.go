package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docsplit/internal/document"
)

// DefaultKeywordsKey is the metadata key keywords are written under.
const DefaultKeywordsKey = "excerpt_keywords"

// KeywordConfig controls keyword enrichment.
type KeywordConfig struct {
	Enabled     bool   `toml:"enabled" json:"enabled"`
	MinKeywords int    `toml:"min_keywords" json:"min_keywords" validate:"gte=0,ltefield=MaxKeywords"`
	MaxKeywords int    `toml:"max_keywords" json:"max_keywords" validate:"gte=1"`
	Template    string `toml:"template" json:"template"`
	MetadataKey string `toml:"metadata_key" json:"metadata_key" validate:"required"`
	Concurrency int    `toml:"concurrency" json:"concurrency" validate:"gte=1"`
	MaxRetries  int    `toml:"max_retries" json:"max_retries" validate:"gte=0"`
}

func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		MinKeywords: 3,
		MaxKeywords: 5,
		Template:    DefaultKeywordTemplate,
		MetadataKey: DefaultKeywordsKey,
		Concurrency: 4,
		MaxRetries:  MaxRetries,
	}
}

var validate = validator.New()

func (c KeywordConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid keyword config: %w", err)
	}
	return nil
}

// KeywordEnricher writes model-generated keywords into chunk metadata.
type KeywordEnricher struct {
	gen     Generator
	cfg     KeywordConfig
	stats   *LatencyStats
	log     *slog.Logger
	backoff func(int) time.Duration
}

// NewKeywordEnricher returns an enricher calling gen. stats may be nil.
func NewKeywordEnricher(gen Generator, cfg KeywordConfig, stats *LatencyStats, log *slog.Logger) (*KeywordEnricher, error) {
	if gen == nil {
		return nil, errors.New("keyword enricher: nil generator")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &KeywordEnricher{
		gen:     gen,
		cfg:     cfg,
		stats:   stats,
		log:     log,
		backoff: Backoff,
	}, nil
}

// Key is the metadata key keywords are written under.
func (e *KeywordEnricher) Key() string { return e.cfg.MetadataKey }

// Model names the backing generator's model.
func (e *KeywordEnricher) Model() string { return e.gen.Model() }

// Enrich returns a copy of chunks with keywords added to each chunk's
// metadata. Chunks with blank content are passed through without a call.
// Chunks whose call fails are kept unenriched and the failures are joined
// into the returned error.
func (e *KeywordEnricher) Enrich(ctx context.Context, chunks []document.Chunk) ([]document.Chunk, error) {
	out := make([]document.Chunk, len(chunks))
	copy(out, chunks)
	errs := make([]error, len(chunks))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i := range out {
		if strings.TrimSpace(out[i].Content) == "" {
			continue
		}
		g.Go(func() error {
			keywords, err := e.keywords(ctx, out[i].Content)
			if err != nil {
				errs[i] = fmt.Errorf("chunk %d (%s): %w", i, out[i].Title, err)
				return nil
			}
			out[i] = out[i].WithMetadata(e.cfg.MetadataKey, keywords)
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		e.log.Warn("keyword enrichment incomplete", "chunks", len(chunks), "error", err)
	}
	return out, err
}

func (e *KeywordEnricher) keywords(ctx context.Context, text string) ([]string, error) {
	prompt := BuildKeywordPrompt(e.cfg.Template, text, e.cfg.MinKeywords, e.cfg.MaxKeywords)
	reply, err := withRetry(ctx, e.cfg.MaxRetries, e.backoff, func() (string, error) {
		start := time.Now()
		reply, err := e.gen.Generate(ctx, prompt)
		if e.stats != nil {
			e.stats.Record(time.Since(start), err)
		}
		if err != nil && IsRetryable(err) {
			e.log.Debug("retrying keyword generation", "model", e.gen.Model(), "error", err)
		}
		return reply, err
	})
	if err != nil {
		return nil, err
	}
	return ParseKeywords(reply, e.cfg.MaxKeywords), nil
}
