package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/index"
	"neuralearn/backend/internal/tools"
	apperrors "neuralearn/backend/pkg/errors"
	"neuralearn/backend/pkg/logger"
)

// How many semantic candidates the classifier sees
const candidateTopK = 5

// Store is the slice of the graph repository routing needs
type Store interface {
	GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error)
	GetNode(ctx context.Context, nodeID string) (*graph.Node, error)
	FindNodesByRoot(ctx context.Context, rootID string) ([]graph.Node, error)
}

// Searcher is the slice of the semantic index gateway routing needs
type Searcher interface {
	Search(ctx context.Context, collectionID, query string, topK int) []index.SearchResult
}

// Classifier produces the routing verdict when deterministic matching
// cannot resolve the question on its own
type Classifier interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, toolset []adapter.Tool) (*adapter.Response, error)
}

// Engine decides, for each incoming question, whether to navigate to an
// existing node or propose a new one. It never persists anything.
type Engine struct {
	store    Store
	searcher Searcher
	llm      Classifier
	web      tools.WebSearcher
	logger   *zap.Logger
}

// NewEngine creates a routing engine. The web searcher may be nil.
func NewEngine(store Store, searcher Searcher, llm Classifier, web tools.WebSearcher) *Engine {
	return &Engine{
		store:    store,
		searcher: searcher,
		llm:      llm,
		web:      web,
		logger:   logger.Get(),
	}
}

// scoredNode pairs a workspace node with its semantic similarity score
type scoredNode struct {
	node  *graph.Node
	score float64
}

// Route resolves one question against the workspace
func (e *Engine) Route(ctx context.Context, req *RouteRequest) (*Decision, error) {
	question := CleanQuestion(req.Question)

	rootTopic, err := e.store.GetRootTopic(ctx, req.RootID)
	if err != nil {
		return nil, err
	}

	var currentNode *graph.Node
	if req.CurrentNodeID != "" {
		currentNode, err = e.store.GetNode(ctx, req.CurrentNodeID)
		if err != nil {
			return nil, err
		}
	}

	// Graph load and semantic search are independent; run them concurrently.
	// Search degrades to nil internally so only the graph load can fail.
	var (
		nodes []graph.Node
		hits  []index.SearchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		nodes, loadErr = e.store.FindNodesByRoot(gctx, req.RootID)
		return loadErr
	})
	g.Go(func() error {
		hits = e.searcher.Search(gctx, rootTopic.IndexCollectionID, question, candidateTopK)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, apperrors.NewEmptyWorkspace(req.RootID)
	}

	byID := make(map[string]*graph.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	candidates := e.rankCandidates(nodes, hits)

	// Deterministic path: an extracted topic that matches an existing title
	// resolves without the LLM
	topic := ExtractTopic(question)
	if topic != "" {
		for i := range nodes {
			if TitlesMatch(topic, nodes[i].Title) {
				e.logger.Info("Routed by title match",
					zap.String("topic", topic),
					zap.String("node_id", nodes[i].ID),
				)
				return &Decision{
					Action:    ActionNavigate,
					NodeID:    nodes[i].ID,
					NodeTitle: nodes[i].Title,
					Reasoning: fmt.Sprintf("Question directly matches existing node %q", nodes[i].Title),
					Question:  question,
				}, nil
			}
		}
	}

	webContext := e.gatherWebContext(ctx, question)

	prompt := buildClassifierPrompt(question, topic, rootTopic, currentNode, candidates, nodes, req.RecentMessages, webContext)
	resp, err := e.llm.Generate(ctx, routingSystemPrompt, prompt, nil)
	if err != nil {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeRouting, "classifier request failed", err)
	}

	verdict, err := parseClassifierDecision(resp.Content)
	if err != nil {
		e.logger.Warn("Unparseable routing decision", zap.String("content", resp.Content))
		return nil, err
	}

	return e.validateDecision(verdict, question, byID)
}

// rankCandidates merges index hits with graph nodes, descending by score.
// When the index returned nothing every node enters at the neutral score so
// the classifier still sees the full workspace.
func (e *Engine) rankCandidates(nodes []graph.Node, hits []index.SearchResult) []scoredNode {
	byID := make(map[string]*graph.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	if len(hits) == 0 {
		neutral := make([]scoredNode, 0, len(nodes))
		for i := range nodes {
			neutral = append(neutral, scoredNode{node: &nodes[i], score: 0.5})
		}
		return neutral
	}

	candidates := make([]scoredNode, 0, len(hits))
	for _, h := range hits {
		if n, ok := byID[h.NodeID]; ok {
			candidates = append(candidates, scoredNode{node: n, score: h.Score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) == 0 {
		return e.rankCandidates(nodes, nil)
	}
	return candidates
}

// gatherWebContext runs a best-effort web search for extra grounding.
// Any failure just means no context block.
func (e *Engine) gatherWebContext(ctx context.Context, question string) string {
	if e.web == nil {
		return ""
	}
	results, err := e.web.Search(ctx, question, 3)
	if err != nil || len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Snippet)
	}
	return sb.String()
}

// parseClassifierDecision extracts the JSON verdict from model output,
// tolerating surrounding prose and markdown fences
func parseClassifierDecision(content string) (*classifierDecision, error) {
	raw := strings.TrimSpace(content)
	if start := strings.Index(raw, "{"); start != -1 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var verdict classifierDecision
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, apperrors.NewInvalidDecision(fmt.Sprintf("malformed decision JSON: %v", err))
	}
	return &verdict, nil
}

// validateDecision checks the LLM verdict against the loaded workspace and
// converts it into the public decision shape
func (e *Engine) validateDecision(verdict *classifierDecision, question string, byID map[string]*graph.Node) (*Decision, error) {
	switch verdict.Action {
	case "use_existing":
		node, ok := byID[verdict.ExistingNodeID]
		if !ok {
			return nil, apperrors.NewUnknownDecisionTarget(verdict.ExistingNodeID)
		}
		return &Decision{
			Action:    ActionNavigate,
			NodeID:    node.ID,
			NodeTitle: node.Title,
			Reasoning: verdict.Reasoning,
			Question:  question,
		}, nil

	case "create_new":
		parent, ok := byID[verdict.ParentNodeID]
		if !ok {
			return nil, apperrors.NewUnknownDecisionTarget(verdict.ParentNodeID)
		}
		title := strings.TrimSpace(verdict.SuggestedTitle)
		if title == "" {
			if topic := ExtractTopic(question); topic != "" {
				title = TitleCase(topic)
			} else {
				title = TitleCase(question)
			}
		}
		summary := strings.TrimSpace(verdict.SuggestedSummary)
		if summary == "" {
			summary = fmt.Sprintf("Exploring: %s", title)
		}
		return &Decision{
			Action:           ActionCreate,
			ParentID:         parent.ID,
			SuggestedTitle:   title,
			SuggestedSummary: summary,
			Reasoning:        verdict.Reasoning,
			Question:         question,
		}, nil

	default:
		return nil, apperrors.NewInvalidDecision(fmt.Sprintf("unknown action %q", verdict.Action))
	}
}
