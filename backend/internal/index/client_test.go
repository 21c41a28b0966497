package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-key", 5*time.Second, nil), srv
}

func TestCreateCollection(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		w.Write([]byte(`{"collection_id":"col-42"}`))
	})
	defer srv.Close()

	if got := client.CreateCollection(context.Background(), "Machine Learning"); got != "col-42" {
		t.Errorf("collection id = %q", got)
	}
}

func TestCreateCollectionFallbackOnFailure(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	got := client.CreateCollection(context.Background(), "Machine Learning")
	if !strings.HasPrefix(got, "fallback_collection_") {
		t.Errorf("want synthetic fallback id, got %q", got)
	}
}

func TestIngestFallbackOnFailure(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	res := client.Ingest(context.Background(), "col-1", "node-1", "Title", "Summary")
	if res.DocumentID != "node-1" {
		t.Errorf("document id = %q, want node id fallback", res.DocumentID)
	}
	if res.ChunkIDs == nil || len(res.ChunkIDs) != 0 {
		t.Errorf("chunk ids = %v, want empty non-nil", res.ChunkIDs)
	}
}

func TestSearchEnforcesDescendingOrder(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"document_id":"d1","chunk_id":"c1","score":0.3,"text":"low","metadata":{"node_id":"n-1","title":"Low"}},
			{"document_id":"d2","chunk_id":"c2","score":0.9,"text":"high","metadata":{"node_id":"n-2","title":"High"}},
			{"document_id":"d3","chunk_id":"c3","score":0.6,"text":"mid","metadata":{"node_id":"n-3","title":"Mid"}}
		]}`))
	})
	defer srv.Close()

	results := client.Search(context.Background(), "col-1", "query", 5)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].NodeID != "n-2" || results[1].NodeID != "n-3" || results[2].NodeID != "n-1" {
		t.Errorf("results not in descending score order: %+v", results)
	}
}

func TestSearchDegradesToEmptyOnFailure(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer srv.Close()

	if results := client.Search(context.Background(), "col-1", "query", 5); results != nil {
		t.Errorf("want nil on service failure, got %v", results)
	}
}

func TestSearchFallsBackToDocumentID(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"document_id":"d1","chunk_id":"c1","score":0.5,"text":"t","metadata":{}}]}`))
	})
	defer srv.Close()

	results := client.Search(context.Background(), "col-1", "query", 5)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].NodeID != "d1" {
		t.Errorf("node id = %q, want document id fallback", results[0].NodeID)
	}
	if results[0].Title != "Untitled" {
		t.Errorf("title = %q", results[0].Title)
	}
}

func TestUpdateAndDeleteAreSilentOnFailure(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	// Both are fire-and-forget; no panic, no return value
	client.Update(context.Background(), "col-1", "doc-1", "new text")
	client.Delete(context.Background(), "col-1", "doc-1")
}

func TestHealth(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	if !client.Health(context.Background()) {
		t.Error("health should report true")
	}

	srv.Close()
	if client.Health(context.Background()) {
		t.Error("health should report false when unreachable")
	}
}
