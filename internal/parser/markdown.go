package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docsplit/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. The source is kept
// as-is except that setext headings are rewritten as ATX lines.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	src := []byte(normalize(string(raw)))

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	title := ""
	var out bytes.Buffer
	pos := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		headingText := strings.TrimSpace(string(h.Text(src)))
		if title == "" && h.Level == 1 {
			title = headingText
		}

		lines := h.Lines()
		first := lines.At(0).Start
		lineStart := bytes.LastIndexByte(src[:first], '\n') + 1
		if bytes.ContainsRune(src[lineStart:first], '#') {
			continue // already ATX
		}

		textEnd := lines.At(lines.Len() - 1).Stop
		if textEnd == 0 || src[textEnd-1] != '\n' {
			textEnd = lineEnd(src, textEnd)
		}
		underlineEnd := lineEnd(src, textEnd)

		out.Write(src[pos:lineStart])
		out.WriteString(heading(h.Level, headingText))
		out.WriteByte('\n')
		pos = underlineEnd
	}
	out.Write(src[pos:])

	if title == "" {
		title = baseTitle(filename)
	}
	return newDocument(title, out.String(), filename, "markdown"), nil
}

// lineEnd returns the index just past the newline that ends the line
// containing src[i], or len(src).
func lineEnd(src []byte, i int) int {
	if i >= len(src) {
		return len(src)
	}
	j := bytes.IndexByte(src[i:], '\n')
	if j < 0 {
		return len(src)
	}
	return i + j + 1
}
