package pathstore

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/splitter"
)

// Layout, relative to the store root:
//
//	users/{user}/documents/{doc}/meta
//	users/{user}/documents/{doc}/chunks/{ulid}
//	users/{user}/documents/by_hash/{sha256}/{doc}
//
// Consecutive chunks of a document are joined by a "next" link.

const (
	sourcePrefix = "docsplit:"
	chunkType    = "document_chunk"
	metaType     = "metacognitive"
)

// ChunkRecord is the stored value of one chunk.
type ChunkRecord struct {
	Key        string         `json:"key,omitempty"`
	Index      int            `json:"index"`
	Title      string         `json:"title"`
	HeaderPath string         `json:"header_path,omitempty"`
	Level      int            `json:"level"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Chars      int            `json:"chars"`
	EstTokens  int            `json:"est_tokens"`
}

// DocumentMeta is the stored summary of one ingested document.
type DocumentMeta struct {
	DocID       string `json:"doc_id"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"`
	Chunks      int    `json:"chunks"`
	Keywords    bool   `json:"keywords"`
	CreatedAt   string `json:"created_at"`
}

// DeleteResult reports what DeleteDocument removed.
type DeleteResult struct {
	DocumentDeleted bool `json:"document_deleted"`
	HashIndex       bool `json:"hash_index_deleted"`
}

// ChunkStore reads and writes the document layout through a Client.
type ChunkStore struct {
	client *Client
	root   string
}

// NewChunkStore returns a store keeping everything under root.
func NewChunkStore(client *Client, root string) *ChunkStore {
	root = strings.Trim(root, "/")
	if root == "" {
		root = "docsplit"
	}
	return &ChunkStore{client: client, root: root}
}

func (s *ChunkStore) documentsPrefix(userID string) string {
	return fmt.Sprintf("%s/users/%s/documents", s.root, userID)
}

func (s *ChunkStore) docPrefix(userID, docID string) string {
	return s.documentsPrefix(userID) + "/" + docID
}

func (s *ChunkStore) hashPrefix(userID, hash string) string {
	return s.documentsPrefix(userID) + "/by_hash/" + hash
}

// FindByHash returns the ID of a document already stored with hash.
func (s *ChunkStore) FindByHash(ctx context.Context, userID, hash string) (string, bool, error) {
	children, err := s.client.ListChildren(ctx, s.hashPrefix(userID, hash), 1)
	if err != nil {
		return "", false, err
	}
	if len(children) == 0 {
		return "", false, nil
	}
	return lastSegment(children[0].Key), true, nil
}

// PutChunks stores chunks in order and links each to its successor. It
// returns how many chunks were written; link failures are reported but do
// not stop the write.
func (s *ChunkStore) PutChunks(ctx context.Context, userID, docID string, chunks []document.Chunk) (int, error) {
	prefix := s.docPrefix(userID, docID) + "/chunks/"
	source := sourcePrefix + docID

	var errs []error
	stored := 0
	prevKey := ""
	for i, c := range chunks {
		key := prefix + newULID()
		err := s.client.PutNode(ctx, key, NodeRequest{
			Value:      toRecord(i, c),
			MemoryType: chunkType,
			Salience:   0.5,
			Source:     source,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("chunk %d: %w", i, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		stored++

		if prevKey != "" {
			if err := s.client.PutLink(ctx, LinkRequest{From: prevKey, To: key, Weight: 1, Summary: "next"}); err != nil {
				errs = append(errs, fmt.Errorf("link chunk %d: %w", i, err))
			}
		}
		prevKey = key
	}
	return stored, errors.Join(errs...)
}

// PutMeta writes the document summary and its hash index entry.
func (s *ChunkStore) PutMeta(ctx context.Context, userID string, meta DocumentMeta) error {
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	source := sourcePrefix + meta.DocID
	if err := s.client.PutNode(ctx, s.docPrefix(userID, meta.DocID)+"/meta", NodeRequest{
		Value:      meta,
		MemoryType: metaType,
		Salience:   0.5,
		Source:     source,
	}); err != nil {
		return err
	}
	if meta.ContentHash == "" {
		return nil
	}
	return s.client.PutNode(ctx, s.hashPrefix(userID, meta.ContentHash)+"/"+meta.DocID, NodeRequest{
		Value:      map[string]any{"filename": meta.Filename, "created_at": meta.CreatedAt},
		MemoryType: metaType,
		Salience:   0.1,
		Source:     source,
	})
}

// GetMeta returns the summary of a document, or nil when it does not exist.
func (s *ChunkStore) GetMeta(ctx context.Context, userID, docID string) (*DocumentMeta, error) {
	node, err := s.client.GetNode(ctx, s.docPrefix(userID, docID)+"/meta")
	if err != nil || node == nil {
		return nil, err
	}
	var meta DocumentMeta
	if err := remarshal(node.Value, &meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &meta, nil
}

// ListDocuments returns the summaries of a user's documents.
func (s *ChunkStore) ListDocuments(ctx context.Context, userID string, limit int) ([]DocumentMeta, error) {
	children, err := s.client.ListChildren(ctx, s.documentsPrefix(userID), limit)
	if err != nil {
		return nil, err
	}
	docs := []DocumentMeta{}
	for _, child := range children {
		if lastSegment(child.Key) != "meta" {
			continue
		}
		var meta DocumentMeta
		if err := remarshal(child.Value, &meta); err != nil {
			continue
		}
		docs = append(docs, meta)
	}
	return docs, nil
}

// ListChunks returns a document's chunks ordered by index.
func (s *ChunkStore) ListChunks(ctx context.Context, userID, docID string, limit int) ([]ChunkRecord, error) {
	children, err := s.client.ListChildren(ctx, s.docPrefix(userID, docID)+"/chunks", limit)
	if err != nil {
		return nil, err
	}
	records := make([]ChunkRecord, 0, len(children))
	for _, child := range children {
		var rec ChunkRecord
		if err := remarshal(child.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", child.Key, err)
		}
		rec.Key = child.Key
		records = append(records, rec)
	}
	slices.SortStableFunc(records, func(a, b ChunkRecord) int { return cmp.Compare(a.Index, b.Index) })
	return records, nil
}

// DeleteDocument removes a document subtree and its hash index entry.
func (s *ChunkStore) DeleteDocument(ctx context.Context, userID, docID string) (DeleteResult, error) {
	var res DeleteResult
	meta, err := s.GetMeta(ctx, userID, docID)
	if err != nil {
		return res, err
	}
	if err := s.client.DeleteNode(ctx, s.docPrefix(userID, docID), true); err != nil {
		return res, err
	}
	res.DocumentDeleted = true

	if meta != nil && meta.ContentHash != "" {
		if err := s.client.DeleteNode(ctx, s.hashPrefix(userID, meta.ContentHash)+"/"+docID, false); err == nil {
			res.HashIndex = true
		}
	}
	return res, nil
}

func toRecord(i int, c document.Chunk) ChunkRecord {
	return ChunkRecord{
		Index:      i,
		Title:      c.Title,
		HeaderPath: c.HeaderPath,
		Level:      c.Level,
		Content:    c.Content,
		Metadata:   c.Metadata,
		Chars:      splitter.CharCount(c.Content),
		EstTokens:  splitter.EstimateTokens(c.Content),
	}
}

// remarshal converts a decoded JSON value into a typed struct.
func remarshal(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// lastSegment returns the final key component. pathstore may report keys
// with either "/" or "." separators.
func lastSegment(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '.' })
	if len(parts) == 0 {
		return key
	}
	return parts[len(parts)-1]
}
