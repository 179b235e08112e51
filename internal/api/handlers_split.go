package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/splitter"
)

var presets = map[string]func() splitter.Config{
	"default":       splitter.DefaultConfig,
	"vectorization": splitter.VectorizationConfig,
	"pure_content":  splitter.PureContentConfig,
	"simple_title":  splitter.SimpleTitleConfig,
	"markdown":      splitter.MarkdownConfig,
	"metadata":      splitter.MetadataConfig,
}

type splitRequest struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	// Preset picks a named base config; Config then overrides single fields.
	Preset         string          `json:"preset"`
	Config         json.RawMessage `json:"config"`
	Output         string          `json:"output"`
	ParagraphsOnly bool            `json:"paragraphs_only"`
}

type splitResponse struct {
	Count  int              `json:"count"`
	Chunks []document.Chunk `json:"chunks,omitempty"`
	Texts  []string         `json:"texts,omitempty"`
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cfg, err := s.splitConfig(req.Preset, req.Config)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sp, err := splitter.New(cfg, s.log)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var chunks []document.Chunk
	if req.ParagraphsOnly {
		chunks = sp.SplitParagraphs(req.Text, req.Metadata)
	} else {
		chunks = sp.Split(req.Text, req.Metadata)
	}

	resp := splitResponse{Count: len(chunks)}
	switch strings.ToLower(req.Output) {
	case "", "chunks":
		resp.Chunks = chunks
		if resp.Chunks == nil {
			resp.Chunks = []document.Chunk{}
		}
	case "strings":
		resp.Texts = sp.Render(chunks)
	case "pure":
		resp.Texts = sp.PureContent(chunks)
	case "titled":
		resp.Texts = sp.TitledContent(chunks)
	default:
		jsonError(w, fmt.Sprintf("unknown output %q (want chunks, strings, pure or titled)", req.Output), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type headingsRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHeadings(w http.ResponseWriter, r *http.Request) {
	var req headingsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	headings := splitter.ParseHeadings(req.Text)
	if headings == nil {
		headings = []splitter.Heading{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(headings),
		"headings": headings,
	})
}

// splitConfig builds a config from the server default or a named preset,
// with raw JSON fields layered on top.
func (s *Server) splitConfig(preset string, raw json.RawMessage) (splitter.Config, error) {
	cfg := s.cfg.Splitter
	if preset != "" {
		mk, ok := presets[strings.ToLower(preset)]
		if !ok {
			return cfg, fmt.Errorf("unknown preset %q", preset)
		}
		cfg = mk()
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// decodeBody reads a size-limited JSON body. It writes the error response
// itself and reports whether decoding succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxSplitBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxSplitBytes), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
