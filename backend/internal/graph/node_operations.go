package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "neuralearn/backend/pkg/errors"
)

// GetNode fetches a single node by id
func (r *Repository) GetNode(ctx context.Context, nodeID string) (*Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:TopicNode {id: $id})
		RETURN properties(n) as node
	`, map[string]interface{}{"id": nodeID})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("get node", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphQueryFailed("get node", err)
		}
		return nil, apperrors.NewNodeNotFound(nodeID)
	}

	props, ok := propsFromRecord(result.Record(), "node")
	if !ok {
		return nil, apperrors.NewGraphQueryFailed("get node", fmt.Errorf("malformed record"))
	}
	return nodeFromProps(props), nil
}

// FindNodesByRoot loads every node under a root topic. Workspace sizes are
// assumed bounded; the routing engine works off the full set.
func (r *Repository) FindNodesByRoot(ctx context.Context, rootID string) ([]Node, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:TopicNode {root_id: $rootID})
		RETURN properties(n) as node
		ORDER BY n.created_at ASC
	`, map[string]interface{}{"rootID": rootID})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("find nodes by root", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if props, ok := propsFromRecord(result.Record(), "node"); ok {
			nodes = append(nodes, *nodeFromProps(props))
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("find nodes by root", err)
	}

	return nodes, nil
}

// GetNodesByIDs fetches a batch of nodes by id, skipping ids with no entity
func (r *Repository) GetNodesByIDs(ctx context.Context, nodeIDs []string) ([]Node, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:TopicNode)
		WHERE n.id IN $ids
		RETURN properties(n) as node
	`, map[string]interface{}{"ids": nodeIDs})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("get nodes by ids", err)
	}

	var nodes []Node
	for result.Next(ctx) {
		if props, ok := propsFromRecord(result.Record(), "node"); ok {
			nodes = append(nodes, *nodeFromProps(props))
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("get nodes by ids", err)
	}

	return nodes, nil
}

// CreateNode persists a node entity. It does NOT link it into the tree;
// callers follow up with AppendChild and IncrementNodeCount, in that order.
func (r *Repository) CreateNode(ctx context.Context, node *Node) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		CREATE (n:TopicNode {
			id: $id,
			title: $title,
			summary: $summary,
			parent_id: $parentID,
			root_id: $rootID,
			tags: $tags,
			index_document_id: $indexDocumentID,
			index_chunk_ids: $indexChunkIDs,
			interaction_count: 0,
			last_refined_at: datetime($lastRefinedAt),
			created_at: datetime($createdAt),
			children_ids: [],
			ancestor_path: $ancestorPath
		})
		RETURN n.id as id
	`, map[string]interface{}{
		"id":              node.ID,
		"title":           node.Title,
		"summary":         node.Summary,
		"parentID":        node.ParentID,
		"rootID":          node.RootID,
		"tags":            toInterfaceSlice(node.Tags),
		"indexDocumentID": node.IndexDocumentID,
		"indexChunkIDs":   toInterfaceSlice(node.IndexChunkIDs),
		"lastRefinedAt":   node.LastRefinedAt.UTC().Format(time.RFC3339),
		"createdAt":       node.CreatedAt.UTC().Format(time.RFC3339),
		"ancestorPath":    toInterfaceSlice(node.AncestorPath),
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("create node", err)
	}
	if _, err = result.Single(ctx); err != nil {
		return apperrors.NewGraphQueryFailed("create node", err)
	}

	r.logger.Info("Node created",
		zap.String("node_id", node.ID),
		zap.String("parent_id", node.ParentID),
		zap.String("root_id", node.RootID),
	)
	return nil
}

// AppendChild atomically appends a child id to the parent's children_ids
func (r *Repository) AppendChild(ctx context.Context, parentID, childID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (p:TopicNode {id: $parentID})
		SET p.children_ids = coalesce(p.children_ids, []) + $childID
		RETURN p.id as id
	`, map[string]interface{}{
		"parentID": parentID,
		"childID":  childID,
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("append child", err)
	}
	if _, err = result.Single(ctx); err != nil {
		return apperrors.NewNodeNotFound(parentID)
	}
	return nil
}

// IncrementInteractionCount atomically bumps a node's interaction counter
// and returns the new value.
func (r *Repository) IncrementInteractionCount(ctx context.Context, nodeID string) (int64, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:TopicNode {id: $id})
		SET n.interaction_count = coalesce(n.interaction_count, 0) + 1
		RETURN n.interaction_count as count
	`, map[string]interface{}{"id": nodeID})
	if err != nil {
		return 0, apperrors.NewGraphQueryFailed("increment interaction count", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, apperrors.NewNodeNotFound(nodeID)
	}

	count, _ := record.Get("count")
	if c, ok := count.(int64); ok {
		return c, nil
	}
	return 0, nil
}

// UpdateSummary persists a refined summary and its refinement timestamp
func (r *Repository) UpdateSummary(ctx context.Context, nodeID, summary string, refinedAt time.Time) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:TopicNode {id: $id})
		SET n.summary = $summary,
		    n.last_refined_at = datetime($refinedAt)
		RETURN n.id as id
	`, map[string]interface{}{
		"id":        nodeID,
		"summary":   summary,
		"refinedAt": refinedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("update summary", err)
	}
	if _, err = result.Single(ctx); err != nil {
		return apperrors.NewNodeNotFound(nodeID)
	}

	r.logger.Info("Node summary refined", zap.String("node_id", nodeID))
	return nil
}

// CreateLinkedNode runs the full create sequence: create the node entity,
// append it to the parent's children_ids, increment the root topic's
// node_count. The three writes are issued in that order without a
// cross-entity transaction; a crash in between leaves the node reachable by
// id but not yet listed by its parent, which readers tolerate.
func (r *Repository) CreateLinkedNode(ctx context.Context, node *Node) error {
	if err := r.CreateNode(ctx, node); err != nil {
		return err
	}
	if err := r.AppendChild(ctx, node.ParentID, node.ID); err != nil {
		return fmt.Errorf("node %s created but not linked: %w", node.ID, err)
	}
	if err := r.IncrementNodeCount(ctx, node.RootID); err != nil {
		return fmt.Errorf("node %s linked but count not bumped: %w", node.ID, err)
	}
	return nil
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
