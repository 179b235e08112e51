package splitter

import (
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

// splitFallback packs the whole text by paragraphs, ignoring headings.
func splitFallback(text string, cfg Config, meta map[string]any) []document.Chunk {
	parts := packParagraphs(text, cfg.ParagraphSeparator, cfg.MaxChunkSize)
	chunks := make([]document.Chunk, 0, len(parts))
	for i, p := range parts {
		m := baseMetadata(cfg, meta)
		m["fallback"] = true
		m["part"] = i + 1
		chunks = append(chunks, document.Chunk{
			Content:  p,
			Metadata: m,
		})
	}
	return filterMinSize(chunks, cfg.MinChunkSize)
}

// filterMinSize drops chunks shorter than minSize characters. It runs exactly
// once per split, after all subdivision, so small parts are dropped rather
// than merged into neighbours.
func filterMinSize(chunks []document.Chunk, minSize int) []document.Chunk {
	out := make([]document.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if CharCount(strings.TrimSpace(c.Content)) >= minSize {
			out = append(out, c)
		}
	}
	return out
}
