package splitter

import (
	"regexp"
	"strings"
)

// headingPattern matches ATX heading lines: 1-6 '#' markers, at least one
// space or tab, then non-blank text.
var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(\S.*)$`)

type rawHeading struct {
	level  int
	title  string
	offset int // byte offset of the heading line
}

// scanHeadings returns every heading line in document order.
func scanHeadings(text string) []rawHeading {
	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]rawHeading, 0, len(matches))
	for _, m := range matches {
		out = append(out, rawHeading{
			level:  m[3] - m[2],
			title:  strings.TrimSpace(text[m[4]:m[5]]),
			offset: m[0],
		})
	}
	return out
}
