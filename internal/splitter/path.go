package splitter

import "strings"

// PathSeparator joins ancestor titles in a header path.
const PathSeparator = " > "

// Heading is a heading line with its position in the document hierarchy.
type Heading struct {
	Level      int    `json:"level"`
	Title      string `json:"title"`
	Offset     int    `json:"offset"`
	ParentPath string `json:"parent_path"`
	FullPath   string `json:"full_path"`
}

// ParseHeadings scans text and resolves the header path of every heading.
func ParseHeadings(text string) []Heading {
	return buildPaths(scanHeadings(text))
}

// buildPaths folds the scanned headings over the list of currently open
// headings. A heading at level L closes every open heading with level >= L,
// so the remaining entries are exactly its ancestors.
func buildPaths(raw []rawHeading) []Heading {
	out := make([]Heading, 0, len(raw))
	var open []Heading

	for _, r := range raw {
		kept := open[:0:0]
		for _, h := range open {
			if h.Level < r.level {
				kept = append(kept, h)
			}
		}
		open = kept

		titles := make([]string, len(open))
		for i, h := range open {
			titles[i] = h.Title
		}
		parent := strings.Join(titles, PathSeparator)
		full := r.title
		if parent != "" {
			full = parent + PathSeparator + r.title
		}

		h := Heading{
			Level:      r.level,
			Title:      r.title,
			Offset:     r.offset,
			ParentPath: parent,
			FullPath:   full,
		}
		open = append(open, h)
		out = append(out, h)
	}
	return out
}

// splitPath breaks a header path back into its segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}
