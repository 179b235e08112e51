package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/pipeline"
	"github.com/dgallion1/docsplit/internal/splitter"
)

// maxBatchFiles caps the number of files accepted by one batch request.
const maxBatchFiles = 10

type ingestResult struct {
	Filename string             `json:"filename"`
	JobID    string             `json:"job_id,omitempty"`
	DocID    string             `json:"doc_id,omitempty"`
	Status   pipeline.JobStatus `json:"status,omitempty"`
	PollURL  string             `json:"poll_url,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	split, err := s.splitOverride(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, code, err := s.readUpload(file, filename)
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}

	job := pipeline.NewJob(userID, r.FormValue("doc_id"), filename, r.FormValue("title"), data)
	job.Force = formBool(r, "force")
	job.SkipKeywords = formBool(r, "skip_keywords")
	job.Split = split

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("job queued",
		"job_id", job.ID,
		"doc_id", job.DocID,
		"user_id", userID,
		"filename", filename,
		"bytes", len(data),
	)
	writeJSON(w, http.StatusAccepted, ingestResult{
		Filename: filename,
		JobID:    job.ID,
		DocID:    job.DocID,
		Status:   pipeline.StatusQueued,
		PollURL:  pollURL(job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxBatchFiles+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	split, err := s.splitOverride(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files (max %d)", maxBatchFiles), http.StatusBadRequest)
		return
	}

	force := formBool(r, "force")
	skipKeywords := formBool(r, "skip_keywords")

	results := make([]ingestResult, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		data, err := s.readPart(fh, filename)
		if err != nil {
			results = append(results, ingestResult{Filename: filename, Error: err.Error()})
			continue
		}

		job := pipeline.NewJob(userID, "", filename, "", data)
		job.Force = force
		job.SkipKeywords = skipKeywords
		job.Split = split

		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, ingestResult{Filename: filename, Error: err.Error()})
			continue
		}
		results = append(results, ingestResult{
			Filename: filename,
			JobID:    job.ID,
			DocID:    job.DocID,
			Status:   pipeline.StatusQueued,
			PollURL:  pollURL(job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) readPart(fh *multipart.FileHeader, filename string) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer f.Close()
	data, _, err := s.readUpload(f, filename)
	return data, err
}

// readUpload reads at most MaxUploadBytes and checks that a parser exists
// for the file, by extension or by sniffed content type.
func (s *Server) readUpload(r io.Reader, filename string) ([]byte, int, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, errors.New("file is empty")
	}
	if _, err := parser.Detect(filename, data); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type %q (supported: %s)", filepath.Ext(filename), strings.Join(parser.Extensions(), ", "))
	}
	return data, 0, nil
}

// splitOverride applies optional form fields over the server's split
// config. It returns nil when no field was given.
func (s *Server) splitOverride(r *http.Request) (*splitter.Config, error) {
	cfg := s.cfg.Splitter
	changed := false

	ints := []struct {
		field string
		dst   *int
	}{
		{"header_level", &cfg.HeaderLevel},
		{"max_chunk_size", &cfg.MaxChunkSize},
		{"min_chunk_size", &cfg.MinChunkSize},
	}
	for _, f := range ints {
		v := r.FormValue(f.field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", f.field)
		}
		*f.dst = n
		changed = true
	}
	if v := r.FormValue("path_mode"); v != "" {
		mode, err := splitter.ParsePathMode(v)
		if err != nil {
			return nil, err
		}
		cfg.PathMode = mode
		cfg.IncludeHeaderPath = mode != splitter.PathModeNone
		changed = true
	}

	if !changed {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}

func pollURL(jobID string) string {
	return fmt.Sprintf("/api/ingest/%s/status", jobID)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
