package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ============================================================================
// Web Tool Implementation
// ============================================================================

// WebResult represents a single web search result
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

func (e *Executor) executeWebSearch(ctx context.Context, execCtx *ExecutionContext, args map[string]interface{}) *ToolResult {
	query := stringArg(args, "query")
	if query == "" {
		return invalidInput(ToolWebSearch, "query is required")
	}

	numResults := intArg(args, "num_results", 3)
	if numResults < 1 {
		numResults = 1
	}
	if numResults > 5 {
		numResults = 5
	}

	// Missing configuration or a per-request opt-out degrades to an explicit
	// empty marker, not an error
	if e.searcher == nil || execCtx.DisableWebSearch {
		message := "Web search not configured"
		if e.searcher != nil {
			message = "Web search disabled for this request"
		}
		return &ToolResult{
			Success: true,
			Data:    map[string]interface{}{"results": []WebResult{}},
			Message: message,
		}
	}

	results, err := e.searcher.Search(ctx, query, numResults)
	if err != nil {
		return &ToolResult{
			Success: true,
			Data:    map[string]interface{}{"results": []WebResult{}},
			Message: fmt.Sprintf("Web search failed: %v", err),
		}
	}

	return &ToolResult{
		Success: true,
		Data:    map[string]interface{}{"results": results, "query": query},
		Message: fmt.Sprintf("Found %d results for: %s", len(results), query),
	}
}

// DuckDuckGoSearcher scrapes the DuckDuckGo HTML endpoint. Free, no API key.
type DuckDuckGoSearcher struct {
	httpClient *http.Client
}

// NewDuckDuckGoSearcher creates a searcher with a bounded client timeout
func NewDuckDuckGoSearcher() *DuckDuckGoSearcher {
	return &DuckDuckGoSearcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Search runs one query and returns up to maxResults parsed results
func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	return parseSearchResults(resp.Body, maxResults)
}

// parseSearchResults extracts results from DuckDuckGo's HTML result page
func parseSearchResults(body io.Reader, maxResults int) ([]WebResult, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	var results []WebResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.Join(strings.Fields(sel.Find(".result__snippet").First().Text()), " ")
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}

		if title == "" || href == "" {
			return true
		}

		results = append(results, WebResult{
			Title:   title,
			URL:     unwrapResultURL(href),
			Snippet: snippet,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// unwrapResultURL undoes DuckDuckGo's redirect wrapping (…uddg=<encoded>…)
func unwrapResultURL(raw string) string {
	idx := strings.Index(raw, "uddg=")
	if idx == -1 {
		return raw
	}
	wrapped := raw[idx+5:]
	if amp := strings.Index(wrapped, "&"); amp != -1 {
		wrapped = wrapped[:amp]
	}
	if decoded, err := url.QueryUnescape(wrapped); err == nil {
		return decoded
	}
	return raw
}
