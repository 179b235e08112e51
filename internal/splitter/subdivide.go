package splitter

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

// maxHeadingLevel is the deepest ATX heading; chunks at this level can only
// be divided by paragraphs.
const maxHeadingLevel = 6

// subdivide replaces every chunk longer than cfg.MaxChunkSize with smaller
// chunks: first by the next heading level down, then by paragraphs. Order is
// preserved.
func subdivide(chunks []document.Chunk, cfg Config, depth int) ([]document.Chunk, error) {
	out := make([]document.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if CharCount(c.Content) <= cfg.MaxChunkSize {
			out = append(out, c)
			continue
		}

		subs, err := subdivideByHeadings(c, cfg, depth)
		if err != nil {
			return nil, err
		}
		if len(subs) > 1 {
			out = append(out, subs...)
			continue
		}
		out = append(out, subdivideByParagraphs(c, cfg)...)
	}
	return out, nil
}

// subdivideByHeadings re-runs the heading split over the chunk's own text one
// level deeper. It returns nil when that yields a single piece.
func subdivideByHeadings(c document.Chunk, cfg Config, depth int) ([]document.Chunk, error) {
	if c.Level >= maxHeadingLevel {
		return nil, nil
	}

	sub, err := splitStructured(c.Content, cfg.derive(c.Level), c.Metadata, depth+1)
	if err != nil {
		return nil, fmt.Errorf("subdivide %q at level %d: %w", c.Title, c.Level+1, err)
	}
	if len(sub) <= 1 {
		return nil, nil
	}

	out := make([]document.Chunk, 0, len(sub))
	for _, sc := range sub {
		m := document.CopyMetadata(c.Metadata)
		m["subsection_title"] = sc.Title
		if p, ok := sc.Metadata["header_path"]; ok {
			m["subsection_path"] = p
		}
		out = append(out, document.Chunk{
			Title:      c.Title + " (subsection)",
			HeaderPath: c.HeaderPath,
			Content:    sc.Content,
			Level:      c.Level + 1,
			Metadata:   m,
		})
	}
	return out, nil
}

// subdivideByParagraphs packs the chunk's paragraphs into parts no longer
// than cfg.MaxChunkSize. A single paragraph over the bound becomes its own
// oversize part.
func subdivideByParagraphs(c document.Chunk, cfg Config) []document.Chunk {
	parts := packParagraphs(c.Content, cfg.ParagraphSeparator, cfg.MaxChunkSize)
	if len(parts) == 0 {
		return []document.Chunk{c}
	}

	out := make([]document.Chunk, 0, len(parts))
	for i, p := range parts {
		m := document.CopyMetadata(c.Metadata)
		m["part"] = i + 1
		out = append(out, document.Chunk{
			Title:      fmt.Sprintf("%s (part %d)", c.Title, i+1),
			HeaderPath: c.HeaderPath,
			Content:    p,
			Level:      c.Level,
			Metadata:   m,
		})
	}
	return out
}

// packParagraphs splits text on sep and greedily joins consecutive pieces
// while the joined length (separators included) stays within limit. Each part
// is a trimmed substring of text; blank parts are dropped.
func packParagraphs(text, sep string, limit int) []string {
	paragraphs := strings.Split(text, sep)
	sepLen := CharCount(sep)

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			parts = append(parts, p)
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range paragraphs {
		paraLen := CharCount(para)
		if current.Len() > 0 && currentLen+sepLen+paraLen > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
			currentLen += sepLen
		}
		current.WriteString(para)
		currentLen += paraLen
	}
	flush()

	return parts
}
