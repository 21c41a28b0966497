package tools

import (
	"neuralearn/backend/internal/adapter"
)

// Tool names - the closed set exposed to the orchestration agent
const (
	ToolSearchNodes   = "search_nodes"
	ToolGetNode       = "get_node"
	ToolGetPathToRoot = "get_path_to_root"
	ToolCreateNode    = "create_node"
	ToolSetActiveNode = "set_active_node"
	ToolWebSearch     = "web_search"
)

// Score bands surfaced to the LLM in the search_nodes description. They are
// advisory guidance, not mechanically enforced.
const (
	ExactThreshold   = 0.85
	RelatedThreshold = 0.65
)

// Node title/summary bounds enforced by create_node
const (
	MaxTitleLen   = 50
	MinSummaryLen = 20
	MaxSummaryLen = 200
)

// GetAllTools returns the full tool set for the agent
func GetAllTools() []adapter.Tool {
	return []adapter.Tool{
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name: ToolSearchNodes,
				Description: `Search for existing nodes by semantic similarity. Returns nodes with scores (0-1).
Score >= 0.85: Exact match, activate this node
Score >= 0.65: Related topic, create under this node
Score < 0.65: Not related, create under root`,
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "Topic to search for",
						},
						"top_k": map[string]interface{}{
							"type":        "number",
							"description": "Number of results (default 5)",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolGetNode,
				Description: "Get full details of a node including its children",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"node_id": map[string]interface{}{
							"type":        "string",
							"description": "Node ID to retrieve",
						},
					},
					"required": []string{"node_id"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolGetPathToRoot,
				Description: "Get ordered path from root to node for UI activation animation",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"node_id": map[string]interface{}{
							"type":        "string",
							"description": "Target node ID",
						},
					},
					"required": []string{"node_id"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolCreateNode,
				Description: "Create a new subtopic node with a clear 1-2 sentence summary",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title": map[string]interface{}{
							"type":        "string",
							"description": "Short topic name (max 50 chars)",
						},
						"summary": map[string]interface{}{
							"type":        "string",
							"description": "1-2 sentence student-friendly explanation (20-200 chars)",
						},
						"parent_id": map[string]interface{}{
							"type":        "string",
							"description": "Parent node ID",
						},
						"tags": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Keywords for searchability",
						},
					},
					"required": []string{"title", "summary", "parent_id"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolSetActiveNode,
				Description: "Switch user's active context to a different node",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"node_id": map[string]interface{}{
							"type":        "string",
							"description": "Node ID to activate",
						},
					},
					"required": []string{"node_id"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolWebSearch,
				Description: "Search web for current info. Only use for latest news/research or fact verification",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "Search query",
						},
						"num_results": map[string]interface{}{
							"type":        "number",
							"description": "Results (1-5, default 3)",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}
