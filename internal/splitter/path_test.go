package splitter

import "testing"

func TestScanHeadings_LineRules(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []rawHeading
	}{
		{"atx levels", "# One\n## Two\n###### Six", []rawHeading{
			{level: 1, title: "One", offset: 0},
			{level: 2, title: "Two", offset: 6},
			{level: 6, title: "Six", offset: 13},
		}},
		{"no space after markers", "#hashtag\n##also", nil},
		{"seven markers", "####### too deep", nil},
		{"indented line", "  # indented", nil},
		{"markers only", "#   \n##", nil},
		{"title trimmed", "##   Spaced Title   ", []rawHeading{{level: 2, title: "Spaced Title", offset: 0}}},
		{"crlf line endings", "# A\r\nbody\r\n## B\r\n", []rawHeading{
			{level: 1, title: "A", offset: 0},
			{level: 2, title: "B", offset: 11},
		}},
		{"offset after preamble", "intro\n# A", []rawHeading{{level: 1, title: "A", offset: 6}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := scanHeadings(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d headings, got %d: %+v", len(tc.want), len(got), got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("heading[%d]: expected %+v, got %+v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestParseHeadings_PathStack(t *testing.T) {
	input := "# A\n## B\n### C\n## D\n# E\n### F\n"
	want := []struct {
		parent string
		full   string
	}{
		{"", "A"},
		{"A", "A > B"},
		{"A > B", "A > B > C"},
		{"A", "A > D"},
		{"", "E"},
		{"E", "E > F"},
	}

	got := ParseHeadings(input)
	if len(got) != len(want) {
		t.Fatalf("expected %d headings, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].ParentPath != w.parent {
			t.Errorf("heading %q: expected parent %q, got %q", got[i].Title, w.parent, got[i].ParentPath)
		}
		if got[i].FullPath != w.full {
			t.Errorf("heading %q: expected path %q, got %q", got[i].Title, w.full, got[i].FullPath)
		}
	}
}

func TestParseHeadings_AncestorsHaveSmallerLevels(t *testing.T) {
	input := "## a\n# b\n#### c\n### d\n#### e\n## f\n###### g\n# h\n"
	headings := ParseHeadings(input)
	levelOf := map[string]int{}
	for _, h := range headings {
		levelOf[h.Title] = h.Level
	}

	for i, h := range headings {
		for _, seg := range splitPath(h.ParentPath) {
			if levelOf[seg] >= h.Level {
				t.Errorf("heading %q (level %d) has ancestor %q with level %d", h.Title, h.Level, seg, levelOf[seg])
			}
		}
		// The immediate parent is the closest earlier heading with a smaller level.
		for j := i - 1; j >= 0; j-- {
			if headings[j].Level < h.Level {
				if want := headings[j].FullPath + PathSeparator + h.Title; h.FullPath != want {
					t.Errorf("heading %q: expected %q, got %q", h.Title, want, h.FullPath)
				}
				break
			}
		}
	}
}

func TestParseHeadings_Empty(t *testing.T) {
	if got := ParseHeadings("no headings here\n\njust text"); len(got) != 0 {
		t.Errorf("expected no headings, got %+v", got)
	}
}
