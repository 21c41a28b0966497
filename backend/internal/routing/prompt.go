package routing

import (
	"fmt"
	"strings"

	"neuralearn/backend/internal/graph"
)

const routingSystemPrompt = `You are a routing classifier for a personal knowledge graph.
Given a student's question and the existing topic nodes of their workspace, decide whether
the question belongs to an existing node or needs a new one.

Respond with ONLY a JSON object, no prose:
{
  "action": "use_existing" | "create_new",
  "reasoning": "one sentence",
  "existingNodeId": "<id, when use_existing>",
  "parentNodeId": "<id of best parent, when create_new>",
  "suggestedTitle": "<short title, when create_new>",
  "suggestedSummary": "<1-2 sentence summary, when create_new>"
}

Rules:
- use_existing when the question is about the same concept as a node, even if worded differently.
- create_new when the question introduces a concept no node covers. Pick the most specific
  related node as parent; fall back to the root node when nothing is related.
- Follow-up questions (pronouns, "that", "it") usually belong to the current node.
- Never invent node IDs. Use only the IDs listed.`

// buildClassifierPrompt renders the workspace state for the routing LLM.
// The full id/title listing goes in alongside the ranked candidates so the
// model can pick a parent outside the top hits without inventing an id.
func buildClassifierPrompt(question, topic string, root *graph.RootTopic, current *graph.Node, candidates []scoredNode, nodes []graph.Node, recent []ChatMessage, webContext string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Workspace: %s\n", root.Title)
	if root.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", root.Description)
	}

	sb.WriteString("\nTop matches (ranked by relevance):\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- id=%s score=%.2f title=%q summary=%q parent=%s\n",
			c.node.ID, c.score, c.node.Title, c.node.Summary, c.node.ParentID)
	}

	sb.WriteString("\nAll nodes:\n")
	for i := range nodes {
		fmt.Fprintf(&sb, "- id=%s title=%q\n", nodes[i].ID, nodes[i].Title)
	}

	if topic != "" {
		fmt.Fprintf(&sb, "\nExtracted topic: %s\n", topic)
	}

	if current != nil {
		fmt.Fprintf(&sb, "\nUser is currently viewing node %s (%q).\n", current.ID, current.Title)
	}

	if len(recent) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		for _, m := range recent {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}

	if webContext != "" {
		sb.WriteString("\nWeb context:\n")
		sb.WriteString(webContext)
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", question)
	return sb.String()
}
