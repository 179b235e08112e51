package document

// Document is a parsed upload rendered as markdown-like text.
type Document struct {
	Title    string         // From metadata, first H1, or filename
	Text     string         // Markdown-like text; headings are ATX lines ("## Title")
	Metadata map[string]any // Source metadata (filename, content type, ...)
}

// Chunk is a contiguous, trimmed span of document text attributed to one
// heading (or to the whole document / a paragraph group).
type Chunk struct {
	Title      string         `json:"title"`
	HeaderPath string         `json:"header_path,omitempty"`
	Content    string         `json:"content"`
	Level      int            `json:"level"` // 0 for whole-document and fallback chunks
	Metadata   map[string]any `json:"metadata"`
}

// WithMetadata returns a copy of c with key set in a fresh metadata map.
func (c Chunk) WithMetadata(key string, value any) Chunk {
	out := c
	out.Metadata = CopyMetadata(c.Metadata)
	out.Metadata[key] = value
	return out
}

// CopyMetadata returns a shallow copy of m. The result is never nil.
func CopyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
