package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/pathstore"
	"github.com/dgallion1/docsplit/internal/splitter"
)

// Store persists split documents.
type Store interface {
	FindByHash(ctx context.Context, userID, hash string) (string, bool, error)
	PutChunks(ctx context.Context, userID, docID string, chunks []document.Chunk) (int, error)
	PutMeta(ctx context.Context, userID string, meta pathstore.DocumentMeta) error
}

// Enricher adds metadata to chunks before they are stored. Key names the
// metadata entry it writes.
type Enricher interface {
	Enrich(ctx context.Context, chunks []document.Chunk) ([]document.Chunk, error)
	Key() string
}

// Worker processes a single document job.
type Worker struct {
	store    Store
	enricher Enricher
	log      *slog.Logger
	split    splitter.Config

	// PDFFallback lets PDF parsing retry with the pdftotext binary.
	PDFFallback bool
}

// NewWorker returns a worker. enricher may be nil to skip keyword generation.
func NewWorker(store Store, enricher Enricher, log *slog.Logger, split splitter.Config) *Worker {
	return &Worker{
		store:    store,
		enricher: enricher,
		log:      log,
		split:    split,

		PDFFallback: true,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	data := job.FileData()
	p, err := parser.Detect(job.Filename, data)
	if err != nil {
		w.fail(log, job, "parsing", "unsupported format", err)
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = w.PDFFallback
	}
	doc, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "parse", err)
		return
	}
	job.releaseFileData()
	if job.Title != "" {
		doc.Title = job.Title
	}

	hash := ContentHashHex([]byte(doc.Text))
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, found, err := w.store.FindByHash(ctx, job.UserID, hash)
		switch {
		case err != nil:
			log.Warn("dedup check failed, proceeding", "error", err)
		case found:
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Split
	job.SetStatus(StatusSplitting, "splitting")
	cfg := w.split
	if job.Split != nil {
		cfg = *job.Split
	}
	s, err := splitter.New(cfg, log)
	if err != nil {
		w.fail(log, job, "splitting", "split config", err)
		return
	}
	meta := document.CopyMetadata(doc.Metadata)
	meta["doc_id"] = job.DocID
	meta["doc_title"] = doc.Title
	chunks := s.Split(doc.Text, meta)
	job.SetTotalChunks(len(chunks))
	log.Info("split document", "chunks", len(chunks), "chars", splitter.CharCount(doc.Text))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	// Phase 3: Enrich
	hadErrors := false
	enriched := false
	if w.enricher != nil && !job.SkipKeywords {
		job.SetStatus(StatusEnriching, "enriching")
		start := time.Now()
		out, err := w.enricher.Enrich(ctx, chunks)
		chunks = out
		enriched = true
		if err != nil {
			log.Error("keyword enrichment incomplete", "error", err)
			job.AddError(fmt.Sprintf("enrich: %s", err))
			hadErrors = true
		}
		job.SetEnriched(countWithKey(chunks, w.enricher.Key()))
		log.Info("enrichment complete", "duration_ms", time.Since(start).Milliseconds())
	}

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	stored, err := w.store.PutChunks(ctx, job.UserID, job.DocID, chunks)
	job.SetStored(stored)
	if err != nil {
		log.Error("chunk store incomplete", "stored", stored, "total", len(chunks), "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		hadErrors = true
	}
	log.Info("storage complete", "stored", stored, "total", len(chunks))

	if stored > 0 {
		metaErr := w.store.PutMeta(ctx, job.UserID, pathstore.DocumentMeta{
			DocID:       job.DocID,
			Filename:    job.Filename,
			Title:       doc.Title,
			ContentHash: hash,
			Chunks:      stored,
			Keywords:    enriched,
			CreatedAt:   job.CreatedAt.UTC().Format(time.RFC3339),
		})
		if metaErr != nil {
			log.Error("meta write failed", "error", metaErr)
			job.AddError(fmt.Sprintf("meta: %s", metaErr))
			hadErrors = true
		}
	}

	switch {
	case stored == 0:
		job.SetStatus(StatusFailed, "storing")
	case hadErrors:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, what string, err error) {
	log.Error(what+" failed", "error", err)
	job.AddError(fmt.Sprintf("%s: %s", what, err))
	job.SetStatus(StatusFailed, phase)
}

func countWithKey(chunks []document.Chunk, key string) int {
	n := 0
	for _, c := range chunks {
		if _, ok := c.Metadata[key]; ok {
			n++
		}
	}
	return n
}
