// Package parser turns uploaded files into markdown-like text whose section
// headings are ATX lines ("## Title"), ready for the heading splitter.
package parser

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docsplit/internal/document"
)

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	return forExtension(strings.ToLower(filepath.Ext(filename)))
}

// Detect picks a parser by extension, falling back to content sniffing when
// the extension is missing or unknown.
func Detect(filename string, data []byte) (Parser, error) {
	if p, err := ForFile(filename); err == nil {
		return p, nil
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if p, err := forExtension(m.Extension()); err == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unsupported file %q", filename)
}

// Extensions returns the supported extensions in sorted order.
func Extensions() []string {
	return slices.Sorted(maps.Keys(SupportedExtensions))
}

func forExtension(ext string) (Parser, error) {
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// normalize composes text to NFC and converts CRLF and lone CR to LF.
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// baseTitle is the filename without directory or extension.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newDocument(title, text, filename, format string) *document.Document {
	return &document.Document{
		Title: normalize(title),
		Text:  normalize(text),
		Metadata: map[string]any{
			"source": filename,
			"format": format,
		},
	}
}

// heading renders an ATX heading line.
func heading(level int, title string) string {
	return strings.Repeat("#", level) + " " + strings.Join(strings.Fields(title), " ")
}
