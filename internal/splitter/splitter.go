// Package splitter cuts markdown-like text into chunks aligned to its heading
// structure, bounded by minimum and maximum character counts.
//
// The heading pass never surfaces errors to callers: any failure while
// scanning or splitting degrades to paragraph packing of the original text.
// Configuration errors are reported by New.
package splitter

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

// maxDepth bounds recursive re-splitting. Derived configs disable
// subdivision, so real inputs never get past depth 1.
const maxDepth = maxHeadingLevel

var errDepthExceeded = errors.New("subdivision depth exceeded")

// Splitter applies one validated Config. It holds no mutable state and is
// safe for concurrent use.
type Splitter struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg and returns a Splitter. A nil logger discards output.
func New(cfg Config, log *slog.Logger) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Splitter{cfg: cfg, log: log}, nil
}

// Config returns a copy of the splitter's configuration.
func (s *Splitter) Config() Config {
	return s.cfg
}

// Split returns the structured chunks for text in document order. meta is
// the original document metadata, copied into chunks when
// InheritOriginalMetadata is set. Blank text yields no chunks.
func (s *Splitter) Split(text string, meta map[string]any) []document.Chunk {
	if strings.TrimSpace(text) == "" {
		return []document.Chunk{}
	}

	chunks, err := splitStructured(text, s.cfg, meta, 0)
	if err != nil {
		s.log.Warn("heading split failed, falling back to paragraphs",
			"error", err,
			"chars", CharCount(text),
		)
		return withPathMetadata(splitFallback(text, s.cfg, meta), s.cfg)
	}
	return withPathMetadata(filterMinSize(chunks, s.cfg.MinChunkSize), s.cfg)
}

// SplitParagraphs ignores headings and packs text by paragraphs only.
func (s *Splitter) SplitParagraphs(text string, meta map[string]any) []document.Chunk {
	if strings.TrimSpace(text) == "" {
		return []document.Chunk{}
	}
	return withPathMetadata(splitFallback(text, s.cfg, meta), s.cfg)
}

// SplitText is Render(Split(text, nil)).
func (s *Splitter) SplitText(text string) []string {
	return s.Render(s.Split(text, nil))
}

// Render flattens chunks to strings according to the configured PathMode.
func (s *Splitter) Render(chunks []document.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = render(c, s.cfg)
	}
	return out
}

// PureContent returns each chunk's trimmed content with no prefix.
func (s *Splitter) PureContent(chunks []document.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = strings.TrimSpace(c.Content)
	}
	return out
}

// TitledContent returns "title\n\ncontent" for each chunk.
func (s *Splitter) TitledContent(chunks []document.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = renderTitled(c)
	}
	return out
}

// splitStructured runs scan, path building, boundary splitting and (when
// enabled) subdivision. Panics are converted to errors so the caller can
// fall back.
func splitStructured(text string, cfg Config, meta map[string]any, depth int) (chunks []document.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("split panicked: %v", r)
		}
	}()

	if depth > maxDepth {
		return nil, errDepthExceeded
	}

	headings := ParseHeadings(text)
	chunks = splitByHeadings(text, headings, cfg, meta)
	if cfg.AutoSubdivide {
		return subdivide(chunks, cfg, depth)
	}
	return chunks, nil
}
