package splitter

import (
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
)

const (
	documentTitle = "document"
	splitterName  = "markdown_header"
)

// splitByHeadings partitions text at every heading with level <=
// cfg.HeaderLevel. Text before the first qualifying heading is not emitted.
func splitByHeadings(text string, headings []Heading, cfg Config, meta map[string]any) []document.Chunk {
	var qualifying []Heading
	for _, h := range headings {
		if h.Level <= cfg.HeaderLevel {
			qualifying = append(qualifying, h)
		}
	}

	if len(qualifying) == 0 {
		m := baseMetadata(cfg, meta)
		return []document.Chunk{{
			Title:    documentTitle,
			Content:  strings.TrimSpace(text),
			Level:    0,
			Metadata: m,
		}}
	}

	chunks := make([]document.Chunk, 0, len(qualifying))
	for i, h := range qualifying {
		end := len(text)
		if i+1 < len(qualifying) {
			end = qualifying[i+1].Offset
		}
		content := strings.TrimSpace(text[h.Offset:end])
		if content == "" {
			continue
		}

		c := document.Chunk{
			Title:    h.Title,
			Content:  content,
			Level:    h.Level,
			Metadata: headingMetadata(cfg, meta, h),
		}
		if cfg.IncludeHeaderPath {
			c.HeaderPath = h.FullPath
		}
		chunks = append(chunks, c)
	}
	return chunks
}

func baseMetadata(cfg Config, meta map[string]any) map[string]any {
	var m map[string]any
	if cfg.InheritOriginalMetadata {
		m = document.CopyMetadata(meta)
	} else {
		m = make(map[string]any, 5)
	}
	m["splitter"] = splitterName
	return m
}

func headingMetadata(cfg Config, meta map[string]any, h Heading) map[string]any {
	m := baseMetadata(cfg, meta)
	m["title"] = h.Title
	m["level"] = h.Level
	m["header_path"] = h.FullPath
	m["parent_path"] = h.ParentPath
	return m
}
