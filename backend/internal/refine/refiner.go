package refine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/pkg/logger"
)

const refinerSystemPrompt = `You rewrite topic summaries for a personal knowledge graph.
Given the current summary and the student's recent questions about the topic, produce an
improved 1-2 sentence summary (20-200 characters) that reflects what the student actually
explores. Keep it factual and student-friendly. Respond with ONLY the new summary text.`

// IndexUpdater is the slice of the index gateway refinement needs
type IndexUpdater interface {
	Update(ctx context.Context, collectionID, documentID, text string)
}

// Summarizer produces the rewritten summary text
type Summarizer interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, toolset []adapter.Tool) (*adapter.Response, error)
}

// Refiner rewrites a node's summary from its recent interaction history.
// Like tracking, refinement is best-effort throughout: every failure is
// logged and swallowed, the stale summary simply survives another cadence.
type Refiner struct {
	store  Store
	index  IndexUpdater
	llm    Summarizer
	logger *zap.Logger
}

// NewRefiner creates a summary refiner
func NewRefiner(store Store, index IndexUpdater, llm Summarizer) *Refiner {
	return &Refiner{
		store:  store,
		index:  index,
		llm:    llm,
		logger: logger.Get(),
	}
}

// Refine rewrites one node's summary from its recent interaction window
func (r *Refiner) Refine(ctx context.Context, nodeID string) {
	node, err := r.store.GetNode(ctx, nodeID)
	if err != nil {
		r.logger.Warn("Refine: node lookup failed",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}

	interactions, err := r.store.ListRecentInteractions(ctx, nodeID, RefineWindow)
	if err != nil || len(interactions) == 0 {
		r.logger.Warn("Refine: no interaction window",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}

	var parentSummary string
	if node.ParentID != "" {
		if parent, err := r.store.GetNode(ctx, node.ParentID); err == nil {
			parentSummary = parent.Summary
		}
	}

	prompt := buildRefinePrompt(node.Title, node.Summary, parentSummary, interactions)
	resp, err := r.llm.Generate(ctx, refinerSystemPrompt, prompt, nil)
	if err != nil {
		r.logger.Warn("Refine: summarizer failed",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}

	summary := sanitizeSummary(resp.Content)
	if summary == "" || summary == node.Summary {
		return
	}

	if err := r.store.UpdateSummary(ctx, nodeID, summary, time.Now().UTC()); err != nil {
		r.logger.Warn("Refine: summary update failed",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
		return
	}

	r.logger.Info("Summary refined",
		zap.String("node_id", nodeID),
		zap.Int("window", len(interactions)),
	)

	// Keep the index in step so future searches see the new text. The
	// gateway logs its own failures.
	if r.index != nil && node.IndexDocumentID != "" {
		if rootTopic, err := r.store.GetRootTopic(ctx, node.RootID); err == nil {
			document := fmt.Sprintf("# %s\n\n%s", node.Title, summary)
			r.index.Update(ctx, rootTopic.IndexCollectionID, node.IndexDocumentID, document)
		}
	}
}

func buildRefinePrompt(title, summary, parentSummary string, interactions []graph.NodeInteraction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", title)
	fmt.Fprintf(&sb, "Current summary: %s\n", summary)
	if parentSummary != "" {
		fmt.Fprintf(&sb, "Parent topic summary: %s\n", parentSummary)
	}
	sb.WriteString("\nRecent questions (newest first):\n")
	for _, rec := range interactions {
		fmt.Fprintf(&sb, "- %s\n", rec.UserMessage)
	}
	sb.WriteString("\nWrite the improved summary.")
	return sb.String()
}

// sanitizeSummary strips quoting and fencing the model sometimes adds
func sanitizeSummary(content string) string {
	s := strings.TrimSpace(content)
	s = strings.Trim(s, "`")
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
