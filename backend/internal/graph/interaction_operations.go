package graph

import (
	"context"
	"encoding/json"
	"time"

	apperrors "neuralearn/backend/pkg/errors"
)

// AppendInteraction writes one immutable question/answer record against a
// node. Source citations are stored as a JSON blob; they are only ever read
// back whole.
func (r *Repository) AppendInteraction(ctx context.Context, rec *NodeInteraction) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	sources := "[]"
	if len(rec.Sources) > 0 {
		if encoded, err := json.Marshal(rec.Sources); err == nil {
			sources = string(encoded)
		}
	}

	_, err := session.Run(ctx, `
		CREATE (i:NodeInteraction {
			id: $id,
			node_id: $nodeID,
			user_message: $userMessage,
			ai_response: $aiResponse,
			sources: $sources,
			timestamp: datetime($timestamp)
		})
	`, map[string]interface{}{
		"id":          rec.ID,
		"nodeID":      rec.NodeID,
		"userMessage": rec.UserMessage,
		"aiResponse":  rec.AIResponse,
		"sources":     sources,
		"timestamp":   rec.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("append interaction", err)
	}
	return nil
}

// ListRecentInteractions returns up to limit interaction records for a node,
// most recent first.
func (r *Repository) ListRecentInteractions(ctx context.Context, nodeID string, limit int) ([]NodeInteraction, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (i:NodeInteraction {node_id: $nodeID})
		RETURN properties(i) as interaction
		ORDER BY i.timestamp DESC
		LIMIT $limit
	`, map[string]interface{}{
		"nodeID": nodeID,
		"limit":  limit,
	})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list recent interactions", err)
	}

	var records []NodeInteraction
	for result.Next(ctx) {
		props, ok := propsFromRecord(result.Record(), "interaction")
		if !ok {
			continue
		}
		rec := NodeInteraction{
			ID:          getStringProp(props, "id"),
			NodeID:      getStringProp(props, "node_id"),
			UserMessage: getStringProp(props, "user_message"),
			AIResponse:  getStringProp(props, "ai_response"),
			Timestamp:   getTimeProp(props, "timestamp"),
		}
		if raw := getStringProp(props, "sources"); raw != "" && raw != "[]" {
			_ = json.Unmarshal([]byte(raw), &rec.Sources)
		}
		records = append(records, rec)
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("list recent interactions", err)
	}

	return records, nil
}

// CountInteractions returns the number of interaction records for a node
func (r *Repository) CountInteractions(ctx context.Context, nodeID string) (int64, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (i:NodeInteraction {node_id: $nodeID})
		RETURN count(i) as total
	`, map[string]interface{}{"nodeID": nodeID})
	if err != nil {
		return 0, apperrors.NewGraphQueryFailed("count interactions", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, apperrors.NewGraphQueryFailed("count interactions", err)
	}

	if total, ok := record.Get("total"); ok {
		if c, ok := total.(int64); ok {
			return c, nil
		}
	}
	return 0, nil
}
