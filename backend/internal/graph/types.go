package graph

import "time"

// RootTopic is a top-level subject area. It owns exactly one semantic index
// collection, and its node_count tracks every node whose root_id is this
// topic's id (the root node included).
type RootTopic struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	IndexCollectionID string    `json:"index_collection_id"`
	NodeCount         int64     `json:"node_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// Node is one vertex in the topic tree.
//
// Invariants maintained by the store:
//   - AncestorPath = parent's AncestorPath + [ID]
//   - ParentID == "" iff len(AncestorPath) == 1 iff ID == RootID
//   - ChildrenIDs holds exactly the ids of nodes whose ParentID is this ID,
//     modulo the transient window between node creation and child-append
type Node struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	ParentID         string    `json:"parent_id,omitempty"`
	RootID           string    `json:"root_id"`
	Tags             []string  `json:"tags"`
	IndexDocumentID  string    `json:"index_document_id"`
	IndexChunkIDs    []string  `json:"index_chunk_ids"`
	InteractionCount int64     `json:"interaction_count"`
	LastRefinedAt    time.Time `json:"last_refined_at"`
	CreatedAt        time.Time `json:"created_at"`
	ChildrenIDs      []string  `json:"children_ids"`
	AncestorPath     []string  `json:"ancestor_path"`
}

// IsRoot reports whether this node is the root node of its topic.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// ChildOf derives a new unlinked node under parent. The returned node still
// needs the create sequence (CreateNode, AppendChild, IncrementNodeCount)
// before it is reachable from the tree.
func ChildOf(parent *Node, id, title, summary string, tags []string) *Node {
	now := time.Now().UTC()
	path := make([]string, 0, len(parent.AncestorPath)+1)
	path = append(path, parent.AncestorPath...)
	path = append(path, id)

	return &Node{
		ID:            id,
		Title:         title,
		Summary:       summary,
		ParentID:      parent.ID,
		RootID:        parent.RootID,
		Tags:          tags,
		LastRefinedAt: now,
		CreatedAt:     now,
		ChildrenIDs:   []string{},
		AncestorPath:  path,
	}
}

// InteractionSource is one cited index chunk behind an answer.
type InteractionSource struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// NodeInteraction is an immutable log record of one question/answer exchange
// against a node. Append-only; read in bounded recent windows.
type NodeInteraction struct {
	ID          string              `json:"id"`
	NodeID      string              `json:"node_id"`
	UserMessage string              `json:"user_message"`
	AIResponse  string              `json:"ai_response"`
	Sources     []InteractionSource `json:"sources,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}
