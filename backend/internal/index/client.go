package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"neuralearn/backend/pkg/logger"
)

// Embedder computes a query embedding for text. Optional: when absent, or
// when it fails, searches fall back to text-only queries and the index
// service embeds server-side.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the external vector-search service. One collection per root
// topic. Every call may fail with a network or service error; the gateway
// absorbs that and degrades to an explicit empty result or no-op instead of
// raising; routing must keep working, degraded, when the index is down.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	embedder   Embedder
	logger     *zap.Logger
}

// IngestResult carries the index back-references stored on a node
type IngestResult struct {
	DocumentID string   `json:"document_id"`
	ChunkIDs   []string `json:"chunk_ids"`
}

// SearchResult is one scored hit, score in [0,1]
type SearchResult struct {
	NodeID  string  `json:"node_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	ChunkID string  `json:"chunk_id"`
}

// NewClient creates a new index gateway client
func NewClient(baseURL, apiKey string, timeout time.Duration, embedder Embedder) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		embedder: embedder,
		logger:   logger.Get(),
	}
}

// CreateCollection creates a collection for a root topic and returns its id.
// On failure it returns a synthetic id so topic creation still succeeds;
// later searches against it simply come back empty.
func (c *Client) CreateCollection(ctx context.Context, name string) string {
	var out struct {
		CollectionID string `json:"collection_id"`
	}
	err := c.post(ctx, "/collections", map[string]interface{}{"name": name}, &out)
	if err != nil || out.CollectionID == "" {
		c.logger.Warn("Index createCollection failed, using fallback id",
			zap.String("name", name),
			zap.Error(err),
		)
		return fmt.Sprintf("fallback_collection_%d", time.Now().UnixNano())
	}
	return out.CollectionID
}

// Ingest pushes a node's title+summary into the collection. Returns the
// node id as document id with no chunks when the service is unavailable.
func (c *Client) Ingest(ctx context.Context, collectionID, nodeID string, title, summary string) IngestResult {
	document := fmt.Sprintf("# %s\n\n%s", title, summary)

	var out struct {
		DocumentID string   `json:"document_id"`
		ChunkIDs   []string `json:"chunk_ids"`
	}
	err := c.post(ctx, fmt.Sprintf("/collections/%s/documents", collectionID), map[string]interface{}{
		"document_id": nodeID,
		"text":        document,
		"metadata": map[string]interface{}{
			"node_id": nodeID,
			"title":   title,
			"type":    "node",
		},
	}, &out)
	if err != nil {
		c.logger.Warn("Index ingest failed",
			zap.String("collection_id", collectionID),
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return IngestResult{DocumentID: nodeID, ChunkIDs: []string{}}
	}

	if out.DocumentID == "" {
		out.DocumentID = nodeID
	}
	if out.ChunkIDs == nil {
		out.ChunkIDs = []string{}
	}
	return IngestResult{DocumentID: out.DocumentID, ChunkIDs: out.ChunkIDs}
}

// Search runs a semantic query against a collection, returning hits in
// non-increasing score order. A precomputed query embedding is attached when
// the embedder is available; embedding failure degrades to text-only search,
// and any service failure degrades to an empty result set.
func (c *Client) Search(ctx context.Context, collectionID, query string, topK int) []SearchResult {
	if topK <= 0 {
		topK = 5
	}

	body := map[string]interface{}{
		"query":            query,
		"top_k":            topK,
		"include_metadata": true,
	}
	if c.embedder != nil {
		if vector, err := c.embedder.Embed(ctx, query); err == nil && len(vector) > 0 {
			body["vector"] = vector
		} else if err != nil {
			c.logger.Debug("Query embedding failed, searching by text only", zap.Error(err))
		}
	}

	var out struct {
		Results []struct {
			DocumentID string  `json:"document_id"`
			ChunkID    string  `json:"chunk_id"`
			Score      float64 `json:"score"`
			Text       string  `json:"text"`
			Metadata   struct {
				NodeID string `json:"node_id"`
				Title  string `json:"title"`
			} `json:"metadata"`
		} `json:"results"`
	}
	err := c.post(ctx, fmt.Sprintf("/collections/%s/search", collectionID), body, &out)
	if err != nil {
		c.logger.Warn("Index search failed, returning empty results",
			zap.String("collection_id", collectionID),
			zap.Error(err),
		)
		return nil
	}

	results := make([]SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		nodeID := r.Metadata.NodeID
		if nodeID == "" {
			nodeID = r.DocumentID
		}
		title := r.Metadata.Title
		if title == "" {
			title = "Untitled"
		}
		results = append(results, SearchResult{
			NodeID:  nodeID,
			Title:   title,
			Score:   r.Score,
			Text:    r.Text,
			ChunkID: r.ChunkID,
		})
	}

	// The service promises descending score order; enforce it anyway.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Update replaces a document's text after a summary refinement
func (c *Client) Update(ctx context.Context, collectionID, documentID, text string) {
	err := c.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/documents/%s", collectionID, documentID),
		map[string]interface{}{"text": text}, nil)
	if err != nil {
		c.logger.Warn("Index update failed",
			zap.String("collection_id", collectionID),
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
}

// Delete removes a document from a collection
func (c *Client) Delete(ctx context.Context, collectionID, documentID string) {
	err := c.do(ctx, http.MethodDelete,
		fmt.Sprintf("/collections/%s/documents/%s", collectionID, documentID), nil, nil)
	if err != nil {
		c.logger.Warn("Index delete failed",
			zap.String("collection_id", collectionID),
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
}

// Health reports whether the index service answers at all
func (c *Client) Health(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("index returned %d: %s", resp.StatusCode, string(payload))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
