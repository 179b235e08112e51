package splitter

import (
	"testing"
)

func renderScenario(t *testing.T, cfg Config) []string {
	t.Helper()
	cfg.MinChunkSize = 1
	s := newSplitter(t, cfg)
	return s.Render(s.Split(scenarioDoc, nil))
}

func TestRender_PathModes(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string // rendering of the "A" chunk
	}{
		{"natural", VectorizationConfig(), "In Title's A section:\n\n## A\n\nText A."},
		{"structured", func() Config {
			c := DefaultConfig()
			c.PathMode = PathModeStructured
			return c
		}(), "Header path: Title > A\n\n## A\n\nText A."},
		{"markdown", MarkdownConfig(), "# Title\n## A\n\n## A\n\nText A."},
		{"none", PureContentConfig(), "## A\n\nText A."},
		{"none ignores path", func() Config {
			c := DefaultConfig()
			c.PathMode = PathModeNone
			return c
		}(), "## A\n\nText A."},
		{"contextual title", SimpleTitleConfig(), "Regarding A:\n\n## A\n\nText A."},
		{"metadata leaves content pristine", MetadataConfig(), "## A\n\nText A."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := renderScenario(t, tc.cfg)
			if len(got) != 3 {
				t.Fatalf("expected 3 rendered chunks, got %d", len(got))
			}
			if got[1] != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got[1])
			}
		})
	}
}

func TestRender_StructuredFallsBackToTitle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PathMode = PathModeStructured
	cfg.IncludeHeaderPath = false
	got := renderScenario(t, cfg)
	if got[2] != "Regarding B:\n\n## B\n\nText B." {
		t.Errorf("unexpected rendering %q", got[2])
	}
}

func TestSplit_MetadataModeWritesKeys(t *testing.T) {
	cfg := MetadataConfig()
	cfg.MinChunkSize = 1
	chunks := newSplitter(t, cfg).Split(scenarioDoc, nil)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	m := chunks[1].Metadata
	if m["section_title"] != "A" {
		t.Errorf("expected section_title A, got %v", m["section_title"])
	}
	if m["section_path"] != "Title > A" {
		t.Errorf("expected section_path, got %v", m["section_path"])
	}
	if m["section_level"] != 2 {
		t.Errorf("expected section_level 2, got %v", m["section_level"])
	}
	if chunks[1].Content != "## A\n\nText A." {
		t.Errorf("expected untouched content, got %q", chunks[1].Content)
	}
}

func TestSplit_MetadataModeCustomKeys(t *testing.T) {
	cfg := MetadataConfig()
	cfg.MinChunkSize = 1
	cfg.TitleKey, cfg.PathKey, cfg.LevelKey = "t", "p", "l"
	chunks := newSplitter(t, cfg).Split(scenarioDoc, nil)
	if chunks[2].Metadata["t"] != "B" || chunks[2].Metadata["p"] != "Title > B" || chunks[2].Metadata["l"] != 2 {
		t.Errorf("unexpected metadata %v", chunks[2].Metadata)
	}
}

func TestTitledAndPureContent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	s := newSplitter(t, cfg)
	chunks := s.Split(scenarioDoc, nil)

	titled := s.TitledContent(chunks)
	if titled[0] != "Title\n\n# Title\n\nIntro." {
		t.Errorf("unexpected titled content %q", titled[0])
	}
	pure := s.PureContent(chunks)
	if pure[2] != "## B\n\nText B." {
		t.Errorf("unexpected pure content %q", pure[2])
	}
}

func TestRender_FallbackChunksHaveNoPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 1
	s := newSplitter(t, cfg)
	got := s.Render(s.SplitParagraphs("plain paragraph", nil))
	if len(got) != 1 || got[0] != "plain paragraph" {
		t.Errorf("expected raw content, got %q", got)
	}
}
