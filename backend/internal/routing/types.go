package routing

// Actions a routing decision can carry
const (
	ActionNavigate = "navigate_to_existing"
	ActionCreate   = "create_new"
)

// ChatMessage is one recent turn of conversation, passed along for pronoun
// resolution when the user is viewing a node.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RouteRequest is the input to the routing engine
type RouteRequest struct {
	Question       string        `json:"question"`
	RootID         string        `json:"rootId"`
	CurrentNodeID  string        `json:"currentNodeId,omitempty"`
	RecentMessages []ChatMessage `json:"recentMessages,omitempty"`
}

// Decision is the routing engine's verdict. Navigate decisions reference an
// existing node. Create decisions only propose; persisting the node is a
// separate, caller-owned confirmation step.
type Decision struct {
	Action           string `json:"action"`
	NodeID           string `json:"nodeId,omitempty"`
	NodeTitle        string `json:"nodeTitle,omitempty"`
	ParentID         string `json:"parentId,omitempty"`
	SuggestedTitle   string `json:"suggestedTitle,omitempty"`
	SuggestedSummary string `json:"suggestedSummary,omitempty"`
	Reasoning        string `json:"reasoning"`
	Question         string `json:"question"`
}

// classifierDecision is the JSON shape the LLM is asked to produce
type classifierDecision struct {
	Action           string `json:"action"`
	Reasoning        string `json:"reasoning"`
	ExistingNodeID   string `json:"existingNodeId,omitempty"`
	ParentNodeID     string `json:"parentNodeId,omitempty"`
	SuggestedTitle   string `json:"suggestedTitle,omitempty"`
	SuggestedSummary string `json:"suggestedSummary,omitempty"`
}
