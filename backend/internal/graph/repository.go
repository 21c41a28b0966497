package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"neuralearn/backend/pkg/logger"
)

// Repository handles all Neo4j store operations. Every entity mutation is a
// single-node Cypher update (point update, atomic increment, atomic list
// append); no multi-entity transaction is used or required.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the unique constraints and lookup indexes the scan
// patterns rely on. Safe to call on every startup.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT topic_node_id IF NOT EXISTS FOR (n:TopicNode) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT root_topic_id IF NOT EXISTS FOR (t:RootTopic) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT interaction_id IF NOT EXISTS FOR (i:NodeInteraction) REQUIRE i.id IS UNIQUE",
		"CREATE INDEX topic_node_root IF NOT EXISTS FOR (n:TopicNode) ON (n.root_id, n.parent_id)",
		"CREATE INDEX topic_node_doc IF NOT EXISTS FOR (n:TopicNode) ON (n.index_document_id)",
		"CREATE INDEX interaction_node IF NOT EXISTS FOR (i:NodeInteraction) ON (i.node_id)",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	r.logger.Debug("Graph schema ensured")
	return nil
}

// readSession opens a read session against the store
func (r *Repository) readSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

// writeSession opens a write session against the store
func (r *Repository) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}
