package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "neuralearn/backend/pkg/errors"
)

// GetRootTopic fetches a root topic by id
func (r *Repository) GetRootTopic(ctx context.Context, topicID string) (*RootTopic, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:RootTopic {id: $id})
		RETURN properties(t) as topic
	`, map[string]interface{}{"id": topicID})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("get root topic", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphQueryFailed("get root topic", err)
		}
		return nil, apperrors.NewTopicNotFound(topicID)
	}

	props, ok := propsFromRecord(result.Record(), "topic")
	if !ok {
		return nil, apperrors.NewGraphQueryFailed("get root topic", fmt.Errorf("malformed record"))
	}
	return topicFromProps(props), nil
}

// FindTopicByTitle looks up a root topic by case-insensitive exact title.
// Returns nil without error when no topic matches.
func (r *Repository) FindTopicByTitle(ctx context.Context, title string) (*RootTopic, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:RootTopic)
		WHERE toLower(t.title) = toLower($title)
		RETURN properties(t) as topic
		LIMIT 1
	`, map[string]interface{}{"title": title})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("find topic by title", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphQueryFailed("find topic by title", err)
		}
		return nil, nil
	}

	props, ok := propsFromRecord(result.Record(), "topic")
	if !ok {
		return nil, apperrors.NewGraphQueryFailed("find topic by title", fmt.Errorf("malformed record"))
	}
	return topicFromProps(props), nil
}

// ListRootTopics returns the most recent topics, newest first
func (r *Repository) ListRootTopics(ctx context.Context, limit int) ([]RootTopic, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:RootTopic)
		RETURN properties(t) as topic
		ORDER BY t.created_at DESC
		LIMIT $limit
	`, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("list root topics", err)
	}

	var topics []RootTopic
	for result.Next(ctx) {
		if props, ok := propsFromRecord(result.Record(), "topic"); ok {
			topics = append(topics, *topicFromProps(props))
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("list root topics", err)
	}

	return topics, nil
}

// CreateRootTopic persists a new root topic together with its root node.
// The root node shares the topic's id, has an empty parent and a
// single-element ancestor path; node_count starts at 1 for it.
func (r *Repository) CreateRootTopic(ctx context.Context, topic *RootTopic, rootNode *Node) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		CREATE (t:RootTopic {
			id: $id,
			title: $title,
			description: $description,
			index_collection_id: $collectionID,
			node_count: 1,
			created_at: datetime($createdAt)
		})
		RETURN t.id as id
	`, map[string]interface{}{
		"id":           topic.ID,
		"title":        topic.Title,
		"description":  topic.Description,
		"collectionID": topic.IndexCollectionID,
		"createdAt":    topic.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("create root topic", err)
	}
	if _, err = result.Single(ctx); err != nil {
		return apperrors.NewGraphQueryFailed("create root topic", err)
	}

	if err := r.CreateNode(ctx, rootNode); err != nil {
		return err
	}

	r.logger.Info("Root topic created",
		zap.String("topic_id", topic.ID),
		zap.String("title", topic.Title),
		zap.String("collection_id", topic.IndexCollectionID),
	)
	return nil
}

// IncrementNodeCount atomically bumps a root topic's node counter
func (r *Repository) IncrementNodeCount(ctx context.Context, rootID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:RootTopic {id: $id})
		SET t.node_count = coalesce(t.node_count, 0) + 1
		RETURN t.id as id
	`, map[string]interface{}{"id": rootID})
	if err != nil {
		return apperrors.NewGraphQueryFailed("increment node count", err)
	}
	if _, err = result.Single(ctx); err != nil {
		return apperrors.NewTopicNotFound(rootID)
	}
	return nil
}
