package splitter

import (
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

// withPathMetadata records title, path and level under the configured keys
// when the path belongs in metadata rather than content.
func withPathMetadata(chunks []document.Chunk, cfg Config) []document.Chunk {
	if cfg.PathMode != PathModeMetadata {
		return chunks
	}
	out := make([]document.Chunk, len(chunks))
	for i, c := range chunks {
		m := document.CopyMetadata(c.Metadata)
		if c.Title != "" {
			m[cfg.TitleKey] = c.Title
		}
		if c.HeaderPath != "" {
			m[cfg.PathKey] = c.HeaderPath
		}
		m[cfg.LevelKey] = c.Level
		c.Metadata = m
		out[i] = c
	}
	return out
}

// render flattens one chunk to text according to cfg.PathMode.
func render(c document.Chunk, cfg Config) string {
	if cfg.PathMode == PathModeNone || cfg.PathMode == PathModeMetadata {
		return strings.TrimSpace(c.Content)
	}

	var sb strings.Builder
	switch {
	case cfg.IncludeHeaderPath && c.HeaderPath != "":
		segments := splitPath(c.HeaderPath)
		switch cfg.PathMode {
		case PathModeNatural:
			sb.WriteString("In ")
			sb.WriteString(strings.Join(segments, "'s "))
			sb.WriteString(" section:\n\n")
		case PathModeStructured:
			sb.WriteString("Header path: ")
			sb.WriteString(c.HeaderPath)
			sb.WriteString("\n\n")
		case PathModeMarkdown:
			for i, seg := range segments {
				sb.WriteString(strings.Repeat("#", i+1))
				sb.WriteString(" ")
				sb.WriteString(seg)
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	case cfg.IncludeContextualTitle && strings.TrimSpace(c.Title) != "":
		sb.WriteString("Regarding ")
		sb.WriteString(c.Title)
		sb.WriteString(":\n\n")
	}

	sb.WriteString(c.Content)
	return strings.TrimSpace(sb.String())
}

func renderTitled(c document.Chunk) string {
	content := strings.TrimSpace(c.Content)
	if strings.TrimSpace(c.Title) == "" {
		return content
	}
	return c.Title + "\n\n" + content
}
