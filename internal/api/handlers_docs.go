package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 200
	maxListLimit     = 10000
)

// handleListDocuments lists the stored documents for a user.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	docs, err := s.docs.ListDocuments(r.Context(), userID, listLimit(r))
	if err != nil {
		s.log.Error("list documents failed", "user_id", userID, "error", err)
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	chunks, err := s.docs.ListChunks(r.Context(), userID, docID, listLimit(r))
	if err != nil {
		s.log.Error("list chunks failed", "user_id", userID, "doc_id", docID, "error", err)
		jsonError(w, "failed to list chunks: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": docID,
		"count":  len(chunks),
		"chunks": chunks,
	})
}

// handleDeleteDocument deletes a document's chunks, meta and hash index entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	res, err := s.docs.DeleteDocument(r.Context(), userID, docID)
	if err != nil {
		s.log.Error("delete document failed", "user_id", userID, "doc_id", docID, "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("document deleted", "user_id", userID, "doc_id", docID, "hash_index", res.HashIndex)
	writeJSON(w, http.StatusOK, res)
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
