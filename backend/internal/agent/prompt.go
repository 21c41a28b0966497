package agent

import (
	"fmt"
	"strings"

	"neuralearn/backend/internal/graph"
)

const systemPromptHeader = `You are a learning assistant that answers questions against a personal knowledge graph.
You have tools to search, inspect, create and activate topic nodes.

Workflow:
1. search_nodes for the question's topic before anything else.
2. If a node matches closely (score >= 0.85), set_active_node on it.
3. If the topic is new, create_node under the most specific related parent.
4. Use web_search only for current events or fact verification.
5. Answer the question in a clear, student-friendly way.

End your final message with a JSON object:
{"answer": "<your full answer>", "action": "navigate" | "create" | "none", "targetNodeId": "<node id>"}`

// buildSystemPrompt renders the workspace snapshot the agent works against
func buildSystemPrompt(root *graph.RootTopic, active *graph.Node, nodes []graph.Node) string {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)

	fmt.Fprintf(&sb, "\n\nWorkspace: %s (%d nodes)\n", root.Title, len(nodes))
	if root.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", root.Description)
	}

	if active != nil {
		fmt.Fprintf(&sb, "\nActive node: %s (%q)\nSummary: %s\n", active.ID, active.Title, active.Summary)
	}

	// A compact listing keeps small graphs fully in context; search_nodes
	// covers the rest
	if len(nodes) > 0 && len(nodes) <= 30 {
		sb.WriteString("\nNodes:\n")
		for _, n := range nodes {
			fmt.Fprintf(&sb, "- %s: %q (parent=%s)\n", n.ID, n.Title, n.ParentID)
		}
	}

	return sb.String()
}
