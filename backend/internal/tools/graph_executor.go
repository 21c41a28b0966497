package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"neuralearn/backend/internal/graph"
)

// ============================================================================
// Graph Tool Implementations
// ============================================================================

func (e *Executor) executeSearchNodes(ctx context.Context, execCtx *ExecutionContext, args map[string]interface{}) *ToolResult {
	query := stringArg(args, "query")
	if query == "" {
		return &ToolResult{Success: false, Error: "query is required"}
	}
	topK := intArg(args, "top_k", 5)

	rootTopic, err := e.store.GetRootTopic(ctx, execCtx.RootID)
	if err != nil {
		return &ToolResult{Success: false, Error: fmt.Sprintf("Root topic not found: %s", execCtx.RootID)}
	}

	hits := e.index.Search(ctx, rootTopic.IndexCollectionID, query, topK)
	if len(hits) == 0 {
		return &ToolResult{
			Success: true,
			Data:    map[string]interface{}{"results": []interface{}{}},
			Message: fmt.Sprintf("No matching nodes for: %s", query),
		}
	}

	// Enrich index hits with store metadata
	nodeIDs := make([]string, 0, len(hits))
	for _, h := range hits {
		nodeIDs = append(nodeIDs, h.NodeID)
	}
	nodes, err := e.store.GetNodesByIDs(ctx, nodeIDs)
	if err != nil {
		nodes = nil
	}
	byID := make(map[string]*graph.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	results := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		entry := map[string]interface{}{
			"id":    h.NodeID,
			"title": h.Title,
			"score": h.Score,
		}
		if n, ok := byID[h.NodeID]; ok {
			entry["title"] = n.Title
			entry["summary"] = n.Summary
			entry["parent_id"] = n.ParentID
			entry["tags"] = n.Tags
		}
		results = append(results, entry)
	}

	return &ToolResult{
		Success: true,
		Data:    map[string]interface{}{"results": results},
		Message: fmt.Sprintf("Found %d nodes for: %s", len(results), query),
	}
}

func (e *Executor) executeGetNode(ctx context.Context, args map[string]interface{}) *ToolResult {
	nodeID := stringArg(args, "node_id")
	if nodeID == "" {
		return &ToolResult{Success: false, Error: "node_id is required"}
	}

	node, err := e.store.GetNode(ctx, nodeID)
	if err != nil {
		return &ToolResult{Success: false, Error: fmt.Sprintf("Node %s not found", nodeID)}
	}

	children, err := e.store.GetNodesByIDs(ctx, node.ChildrenIDs)
	if err != nil {
		children = nil
	}
	childSummaries := make([]map[string]interface{}, 0, len(children))
	for _, c := range children {
		childSummaries = append(childSummaries, map[string]interface{}{
			"id":      c.ID,
			"title":   c.Title,
			"summary": c.Summary,
		})
	}

	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"id":            node.ID,
			"title":         node.Title,
			"summary":       node.Summary,
			"parent_id":     node.ParentID,
			"tags":          node.Tags,
			"children":      childSummaries,
			"ancestor_path": node.AncestorPath,
		},
	}
}

func (e *Executor) executeGetPathToRoot(ctx context.Context, args map[string]interface{}) *ToolResult {
	nodeID := stringArg(args, "node_id")
	if nodeID == "" {
		return &ToolResult{Success: false, Error: "node_id is required"}
	}

	node, err := e.store.GetNode(ctx, nodeID)
	if err != nil {
		return &ToolResult{
			Success: false,
			Error:   fmt.Sprintf("Node %s not found", nodeID),
			Data:    map[string]interface{}{"path": []string{}},
		}
	}

	return &ToolResult{
		Success: true,
		Data:    map[string]interface{}{"path": node.AncestorPath},
	}
}

func (e *Executor) executeCreateNode(ctx context.Context, args map[string]interface{}) *ToolResult {
	title := strings.TrimSpace(stringArg(args, "title"))
	summary := strings.TrimSpace(stringArg(args, "summary"))
	parentID := stringArg(args, "parent_id")
	tags := stringSliceArg(args, "tags")

	if title == "" || summary == "" || parentID == "" {
		return invalidInput(ToolCreateNode, "title, summary and parent_id are required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return invalidInput(ToolCreateNode, fmt.Sprintf("title exceeds %d characters", MaxTitleLen))
	}
	if n := utf8.RuneCountInString(summary); n < MinSummaryLen || n > MaxSummaryLen {
		return invalidInput(ToolCreateNode, fmt.Sprintf("summary must be %d-%d characters", MinSummaryLen, MaxSummaryLen))
	}

	parent, err := e.store.GetNode(ctx, parentID)
	if err != nil {
		return &ToolResult{Success: false, Error: fmt.Sprintf("Parent %s not found", parentID)}
	}
	rootTopic, err := e.store.GetRootTopic(ctx, parent.RootID)
	if err != nil {
		return &ToolResult{Success: false, Error: "Root topic not found"}
	}

	nodeID := uuid.NewString()
	if tags == nil {
		tags = []string{}
	}

	// Ingest first so the node carries its index back-references from birth
	ingested := e.index.Ingest(ctx, rootTopic.IndexCollectionID, nodeID, title, summary)

	node := graph.ChildOf(parent, nodeID, title, summary, tags)
	node.IndexDocumentID = ingested.DocumentID
	node.IndexChunkIDs = ingested.ChunkIDs

	if err := e.store.CreateLinkedNode(ctx, node); err != nil {
		return &ToolResult{Success: false, Error: fmt.Sprintf("Failed to create node: %v", err)}
	}

	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"created":       true,
			"id":            nodeID,
			"title":         title,
			"summary":       summary,
			"parent_id":     parentID,
			"ancestor_path": node.AncestorPath,
		},
		Message: fmt.Sprintf("Created node %q under %q", title, parent.Title),
	}
}

func (e *Executor) executeSetActiveNode(ctx context.Context, args map[string]interface{}) *ToolResult {
	nodeID := stringArg(args, "node_id")
	if nodeID == "" {
		return &ToolResult{Success: false, Error: "node_id is required"}
	}

	node, err := e.store.GetNode(ctx, nodeID)
	if err != nil {
		return &ToolResult{Success: false, Error: fmt.Sprintf("Node %s not found", nodeID)}
	}

	// Pure validation; activation is client state, nothing mutates here
	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"active_node_id": node.ID,
			"title":          node.Title,
			"ancestor_path":  node.AncestorPath,
		},
	}
}
