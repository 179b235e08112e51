package pathstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeKV is an in-memory stand-in for the pathstore HTTP API.
type fakeKV struct {
	mu    sync.Mutex
	nodes map[string]NodeRequest
	links []LinkRequest
	fail  map[string]int // key prefix -> status to return on PUT
}

func newFakeKV(t *testing.T) (*fakeKV, *Client) {
	t.Helper()
	kv := &fakeKV{nodes: map[string]NodeRequest{}, fail: map[string]int{}}
	srv := httptest.NewServer(kv)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "secret")
	t.Cleanup(c.Close)
	return kv, c
}

func (kv *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/links" {
		var link LinkRequest
		json.NewDecoder(r.Body).Decode(&link)
		kv.links = append(kv.links, link)
		w.WriteHeader(http.StatusCreated)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodPut:
		for prefix, code := range kv.fail {
			if strings.HasPrefix(key, prefix) {
				http.Error(w, "nope", code)
				return
			}
		}
		var node NodeRequest
		json.NewDecoder(r.Body).Decode(&node)
		kv.nodes[key] = node
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodGet && strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var keys []string
		for k := range kv.nodes {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n < len(keys) {
			keys = keys[:n]
		}
		nodes := make([]ListChildrenResponse, 0, len(keys))
		for _, k := range keys {
			nodes = append(nodes, ListChildrenResponse{Key: k, Value: kv.nodes[k].Value})
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})

	case r.Method == http.MethodGet:
		node, ok := kv.nodes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(NodeResponse{Key: key, Value: node.Value, MemoryType: node.MemoryType})

	case r.Method == http.MethodDelete:
		if r.URL.Query().Get("children") == "true" {
			for k := range kv.nodes {
				if strings.HasPrefix(k, key+"/") {
					delete(kv.nodes, k)
				}
			}
		}
		delete(kv.nodes, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (kv *fakeKV) keys(prefix string) []string {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	var out []string
	for k := range kv.nodes {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
