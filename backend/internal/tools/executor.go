package tools

import (
	"context"

	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/index"
	apperrors "neuralearn/backend/pkg/errors"
	"neuralearn/backend/pkg/logger"
)

// Store is the slice of the graph repository the tool handlers need
type Store interface {
	GetNode(ctx context.Context, nodeID string) (*graph.Node, error)
	GetNodesByIDs(ctx context.Context, nodeIDs []string) ([]graph.Node, error)
	GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error)
	CreateLinkedNode(ctx context.Context, node *graph.Node) error
}

// Index is the slice of the semantic index gateway the tool handlers need
type Index interface {
	Search(ctx context.Context, collectionID, query string, topK int) []index.SearchResult
	Ingest(ctx context.Context, collectionID, nodeID, title, summary string) index.IngestResult
}

// WebSearcher runs external web searches. A nil searcher means web search is
// not configured; the tool then returns an explicit empty-result marker.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// ExecutionContext holds per-request context for tool execution
type ExecutionContext struct {
	RootID           string
	ActiveNodeID     string
	DisableWebSearch bool
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Executor dispatches tool calls to their typed handlers. The tool set is
// closed: a name outside it is an explicit error, never a silent no-op.
type Executor struct {
	store    Store
	index    Index
	searcher WebSearcher
	logger   *zap.Logger
}

// NewExecutor creates a new tool executor
func NewExecutor(store Store, idx Index, searcher WebSearcher) *Executor {
	return &Executor{
		store:    store,
		index:    idx,
		searcher: searcher,
		logger:   logger.Get(),
	}
}

// Execute runs a tool call and returns the result
func (e *Executor) Execute(ctx context.Context, execCtx *ExecutionContext, toolCall adapter.ToolCall) *ToolResult {
	e.logger.Debug("Executing tool",
		zap.String("tool", toolCall.Name),
		zap.String("root_id", execCtx.RootID),
	)

	switch toolCall.Name {
	case ToolSearchNodes:
		return e.executeSearchNodes(ctx, execCtx, toolCall.Arguments)
	case ToolGetNode:
		return e.executeGetNode(ctx, toolCall.Arguments)
	case ToolGetPathToRoot:
		return e.executeGetPathToRoot(ctx, toolCall.Arguments)
	case ToolCreateNode:
		return e.executeCreateNode(ctx, toolCall.Arguments)
	case ToolSetActiveNode:
		return e.executeSetActiveNode(ctx, toolCall.Arguments)
	case ToolWebSearch:
		return e.executeWebSearch(ctx, execCtx, toolCall.Arguments)
	default:
		e.logger.Warn("Unknown tool", zap.String("tool", toolCall.Name))
		return &ToolResult{
			Success: false,
			Error:   apperrors.NewToolNotFound(toolCall.Name).Error(),
		}
	}
}

// invalidInput wraps an argument validation failure in the typed taxonomy
func invalidInput(tool, reason string) *ToolResult {
	return &ToolResult{
		Success: false,
		Error:   apperrors.NewInvalidToolInput(tool, reason).Error(),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]interface{}, key string, defaultValue int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultValue
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
