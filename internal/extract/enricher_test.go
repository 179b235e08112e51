package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docsplit/internal/document"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string, call int) (string, error)
	calls   atomic.Int32
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	n := int(f.calls.Add(1))
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(prompt, n)
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func newTestEnricher(t *testing.T, gen Generator, mutate func(*KeywordConfig)) *KeywordEnricher {
	t.Helper()
	cfg := DefaultKeywordConfig()
	cfg.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewKeywordEnricher(gen, cfg, NewLatencyStats(time.Hour), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.backoff = func(int) time.Duration { return 0 }
	return e
}

func TestEnrich_WritesKeywordsIntoCopy(t *testing.T) {
	gen := &fakeGenerator{reply: func(string, int) (string, error) { return "alpha, beta", nil }}
	e := newTestEnricher(t, gen, nil)

	in := []document.Chunk{{Title: "A", Content: "Some content.", Metadata: map[string]any{"k": "v"}}}
	out, err := e.Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out[0].Metadata[DefaultKeywordsKey]
	if !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("unexpected keywords %v", got)
	}
	if out[0].Metadata["k"] != "v" {
		t.Error("expected existing metadata to be kept")
	}
	if _, ok := in[0].Metadata[DefaultKeywordsKey]; ok {
		t.Error("expected input metadata to be untouched")
	}
	if !strings.HasPrefix(gen.prompts[0], "Some content.. Give 3 to 5 unique keywords") {
		t.Errorf("unexpected prompt %q", gen.prompts[0])
	}
}

func TestEnrich_SkipsBlankContent(t *testing.T) {
	gen := &fakeGenerator{reply: func(string, int) (string, error) { return "x", nil }}
	e := newTestEnricher(t, gen, nil)

	out, err := e.Enrich(context.Background(), []document.Chunk{{Content: "  \n "}, {Content: "real"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", gen.calls.Load())
	}
	if _, ok := out[0].Metadata[DefaultKeywordsKey]; ok {
		t.Error("expected blank chunk to carry no keywords")
	}
}

func TestEnrich_BlankReplyYieldsEmptyList(t *testing.T) {
	gen := &fakeGenerator{reply: func(string, int) (string, error) { return "", nil }}
	e := newTestEnricher(t, gen, func(c *KeywordConfig) { c.MetadataKey = "tags" })

	out, err := e.Enrich(context.Background(), []document.Chunk{{Content: "text"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := out[0].Metadata["tags"].([]string)
	if !ok || len(got) != 0 {
		t.Errorf("expected empty keyword list, got %#v", out[0].Metadata["tags"])
	}
}

func TestEnrich_RetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{reply: func(_ string, call int) (string, error) {
		if call < 3 {
			return "", &RetryableError{StatusCode: 429, Message: "slow down"}
		}
		return "ok", nil
	}}
	e := newTestEnricher(t, gen, nil)

	out, err := e.Enrich(context.Background(), []document.Chunk{{Content: "text"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", gen.calls.Load())
	}
	if !reflect.DeepEqual(out[0].Metadata[DefaultKeywordsKey], []string{"ok"}) {
		t.Errorf("unexpected keywords %v", out[0].Metadata[DefaultKeywordsKey])
	}
	if snap := e.stats.Snapshot(); snap.Count != 3 || snap.Errors != 2 {
		t.Errorf("expected 3 samples with 2 errors, got %+v", snap)
	}
}

func TestEnrich_PermanentFailureKeepsChunk(t *testing.T) {
	boom := errors.New("bad request")
	gen := &fakeGenerator{reply: func(prompt string, _ int) (string, error) {
		if strings.HasPrefix(prompt, "fail") {
			return "", boom
		}
		return "fine", nil
	}}
	e := newTestEnricher(t, gen, nil)

	in := []document.Chunk{{Title: "bad", Content: "fail me"}, {Title: "good", Content: "works"}}
	out, err := e.Enrich(context.Background(), in)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error wrapping %v, got %v", boom, err)
	}
	if len(out) != 2 {
		t.Fatalf("expected both chunks kept, got %d", len(out))
	}
	if _, ok := out[0].Metadata[DefaultKeywordsKey]; ok {
		t.Error("expected failed chunk to be unenriched")
	}
	if out[1].Metadata[DefaultKeywordsKey] == nil {
		t.Error("expected good chunk to be enriched")
	}
	if gen.calls.Load() != 2 {
		t.Errorf("expected no retries for permanent error, got %d calls", gen.calls.Load())
	}
}

func TestEnrich_PreservesOrder(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string, _ int) (string, error) {
		return strings.SplitN(prompt, ".", 2)[0], nil
	}}
	e := newTestEnricher(t, gen, func(c *KeywordConfig) { c.Concurrency = 8 })

	var in []document.Chunk
	for _, w := range []string{"one", "two", "three", "four", "five", "six"} {
		in = append(in, document.Chunk{Content: w})
	}
	out, err := e.Enrich(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range out {
		kw := c.Metadata[DefaultKeywordsKey].([]string)
		if kw[0] != in[i].Content {
			t.Errorf("chunk %d: expected %q, got %q", i, in[i].Content, kw[0])
		}
	}
}

func TestNewKeywordEnricher_Validation(t *testing.T) {
	gen := &fakeGenerator{}
	if _, err := NewKeywordEnricher(nil, DefaultKeywordConfig(), nil, nil); err == nil {
		t.Error("expected error for nil generator")
	}
	cfg := DefaultKeywordConfig()
	cfg.MaxKeywords = 0
	if _, err := NewKeywordEnricher(gen, cfg, nil, nil); err == nil {
		t.Error("expected error for zero max keywords")
	}
	cfg = DefaultKeywordConfig()
	cfg.MetadataKey = ""
	if _, err := NewKeywordEnricher(gen, cfg, nil, nil); err == nil {
		t.Error("expected error for empty metadata key")
	}
}
