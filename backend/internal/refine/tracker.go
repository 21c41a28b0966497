package refine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"neuralearn/backend/internal/graph"
	"neuralearn/backend/pkg/logger"
)

// Refinement policy. A node's summary is rewritten every cadence-th
// interaction, provided enough records exist to say something new.
const (
	RefineCadence = 5
	MinRecords    = 3
	RefineWindow  = 10
)

// Store is the slice of the graph repository interaction tracking needs
type Store interface {
	GetNode(ctx context.Context, nodeID string) (*graph.Node, error)
	GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error)
	IncrementInteractionCount(ctx context.Context, nodeID string) (int64, error)
	AppendInteraction(ctx context.Context, rec *graph.NodeInteraction) error
	ListRecentInteractions(ctx context.Context, nodeID string, limit int) ([]graph.NodeInteraction, error)
	CountInteractions(ctx context.Context, nodeID string) (int64, error)
	UpdateSummary(ctx context.Context, nodeID, summary string, refinedAt time.Time) error
}

// Tracker records resolved chat turns against nodes and triggers summary
// refinement on cadence. Everything here is best-effort: a tracking failure
// must never surface into the chat path that calls it.
type Tracker struct {
	store   Store
	refiner *Refiner
	logger  *zap.Logger
}

// NewTracker creates a tracker. The refiner may be nil to disable refinement.
func NewTracker(store Store, refiner *Refiner) *Tracker {
	return &Tracker{
		store:   store,
		refiner: refiner,
		logger:  logger.Get(),
	}
}

// TrackInteraction persists one resolved turn and refines the node's summary
// when the cadence policy says so
func (t *Tracker) TrackInteraction(ctx context.Context, nodeID, userMessage, aiResponse string, sources []graph.InteractionSource) {
	count, err := t.store.IncrementInteractionCount(ctx, nodeID)
	if err != nil {
		t.logger.Warn("Failed to increment interaction count",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}

	rec := &graph.NodeInteraction{
		ID:          uuid.NewString(),
		NodeID:      nodeID,
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		Sources:     sources,
		Timestamp:   time.Now().UTC(),
	}
	if err := t.store.AppendInteraction(ctx, rec); err != nil {
		t.logger.Warn("Failed to append interaction record",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		// Count and record can drift here; refinement tolerates that
	}

	t.MaybeRefine(ctx, nodeID, count)
}

// MaybeRefine checks the cadence policy and runs refinement when due
func (t *Tracker) MaybeRefine(ctx context.Context, nodeID string, count int64) {
	if t.refiner == nil {
		return
	}
	if count <= 0 || count%RefineCadence != 0 {
		return
	}

	records, err := t.store.CountInteractions(ctx, nodeID)
	if err != nil {
		t.logger.Warn("Failed to count interactions",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}
	if !ShouldRefine(count, records) {
		return
	}

	t.logger.Info("Refinement due",
		zap.String("node_id", nodeID),
		zap.Int64("interaction_count", count),
		zap.Int64("records", records),
	)
	t.refiner.Refine(ctx, nodeID)
}

// ShouldRefine is the pure cadence policy: refinement happens on every
// cadence-th interaction once enough records have accumulated
func ShouldRefine(count, records int64) bool {
	return count > 0 && count%RefineCadence == 0 && records >= MinRecords
}
