package routing

import (
	"context"
	"errors"
	"testing"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/index"
	apperrors "neuralearn/backend/pkg/errors"
)

type mockStore struct {
	topic *graph.RootTopic
	nodes []graph.Node
}

func (m *mockStore) GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error) {
	if m.topic == nil || m.topic.ID != topicID {
		return nil, apperrors.NewTopicNotFound(topicID)
	}
	return m.topic, nil
}

func (m *mockStore) GetNode(ctx context.Context, nodeID string) (*graph.Node, error) {
	for i := range m.nodes {
		if m.nodes[i].ID == nodeID {
			return &m.nodes[i], nil
		}
	}
	return nil, apperrors.NewNodeNotFound(nodeID)
}

func (m *mockStore) FindNodesByRoot(ctx context.Context, rootID string) ([]graph.Node, error) {
	return m.nodes, nil
}

type mockSearcher struct {
	hits []index.SearchResult
}

func (m *mockSearcher) Search(ctx context.Context, collectionID, query string, topK int) []index.SearchResult {
	return m.hits
}

type mockClassifier struct {
	content string
	err     error
	called  bool
}

func (m *mockClassifier) Generate(ctx context.Context, systemPrompt, userMessage string, toolset []adapter.Tool) (*adapter.Response, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	return &adapter.Response{Content: m.content}, nil
}

func testWorkspace() (*mockStore, *mockSearcher) {
	store := &mockStore{
		topic: &graph.RootTopic{ID: "root-1", Title: "Machine Learning", IndexCollectionID: "col-1"},
		nodes: []graph.Node{
			{ID: "root-1", Title: "Machine Learning", RootID: "root-1", AncestorPath: []string{"root-1"}},
			{ID: "n-1", Title: "Gradient Descent", Summary: "Optimization by following gradients", ParentID: "root-1", RootID: "root-1", AncestorPath: []string{"root-1", "n-1"}},
			{ID: "n-2", Title: "Overfitting", Summary: "Model memorizes noise", ParentID: "root-1", RootID: "root-1", AncestorPath: []string{"root-1", "n-2"}},
		},
	}
	searcher := &mockSearcher{
		hits: []index.SearchResult{
			{NodeID: "n-1", Title: "Gradient Descent", Score: 0.9},
			{NodeID: "n-2", Title: "Overfitting", Score: 0.4},
		},
	}
	return store, searcher
}

func TestRouteTitleMatchSkipsClassifier(t *testing.T) {
	store, searcher := testWorkspace()
	llm := &mockClassifier{content: `{"action":"use_existing","existingNodeId":"n-2"}`}
	engine := NewEngine(store, searcher, llm, nil)

	decision, err := engine.Route(context.Background(), &RouteRequest{
		Question: "What is gradient descent?",
		RootID:   "root-1",
	})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if llm.called {
		t.Error("classifier should not run when a title matches deterministically")
	}
	if decision.Action != ActionNavigate || decision.NodeID != "n-1" {
		t.Errorf("got action=%s node=%s, want navigate to n-1", decision.Action, decision.NodeID)
	}
}

func TestRouteEmptyWorkspace(t *testing.T) {
	store := &mockStore{topic: &graph.RootTopic{ID: "root-1", IndexCollectionID: "col-1"}}
	engine := NewEngine(store, &mockSearcher{}, &mockClassifier{}, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{Question: "anything", RootID: "root-1"})
	var empty *apperrors.ErrEmptyWorkspace
	if !errors.As(err, &empty) {
		t.Fatalf("want ErrEmptyWorkspace, got %v", err)
	}
}

func TestRouteTopicNotFound(t *testing.T) {
	store, searcher := testWorkspace()
	engine := NewEngine(store, searcher, &mockClassifier{}, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{Question: "anything", RootID: "missing"})
	var notFound *apperrors.ErrTopicNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("want ErrTopicNotFound, got %v", err)
	}
}

func TestRouteClassifierNavigate(t *testing.T) {
	store, searcher := testWorkspace()
	llm := &mockClassifier{content: `{"action":"use_existing","existingNodeId":"n-2","reasoning":"same concept"}`}
	engine := NewEngine(store, searcher, llm, nil)

	decision, err := engine.Route(context.Background(), &RouteRequest{
		Question: "why does my model memorize the training set",
		RootID:   "root-1",
	})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if !llm.called {
		t.Fatal("classifier should run when no title matches")
	}
	if decision.Action != ActionNavigate || decision.NodeID != "n-2" {
		t.Errorf("got action=%s node=%s, want navigate to n-2", decision.Action, decision.NodeID)
	}
}

func TestRouteClassifierCreateWithDefaults(t *testing.T) {
	store, searcher := testWorkspace()
	llm := &mockClassifier{content: `{"action":"create_new","parentNodeId":"n-1"}`}
	engine := NewEngine(store, searcher, llm, nil)

	decision, err := engine.Route(context.Background(), &RouteRequest{
		Question: "what is momentum",
		RootID:   "root-1",
	})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Action != ActionCreate || decision.ParentID != "n-1" {
		t.Fatalf("got action=%s parent=%s", decision.Action, decision.ParentID)
	}
	if decision.SuggestedTitle != "Momentum" {
		t.Errorf("suggested title = %q, want extracted topic title-cased", decision.SuggestedTitle)
	}
	if decision.SuggestedSummary != "Exploring: Momentum" {
		t.Errorf("suggested summary = %q", decision.SuggestedSummary)
	}
}

func TestRouteUnknownDecisionTarget(t *testing.T) {
	store, searcher := testWorkspace()
	llm := &mockClassifier{content: `{"action":"use_existing","existingNodeId":"ghost"}`}
	engine := NewEngine(store, searcher, llm, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{
		Question: "something unrouted",
		RootID:   "root-1",
	})
	var unknown *apperrors.ErrUnknownDecisionTarget
	if !errors.As(err, &unknown) {
		t.Fatalf("want ErrUnknownDecisionTarget, got %v", err)
	}
	if unknown.NodeID != "ghost" {
		t.Errorf("target = %q", unknown.NodeID)
	}
}

func TestRouteMalformedDecision(t *testing.T) {
	store, searcher := testWorkspace()
	llm := &mockClassifier{content: "I think you should probably navigate somewhere."}
	engine := NewEngine(store, searcher, llm, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{
		Question: "something unrouted",
		RootID:   "root-1",
	})
	var invalid *apperrors.ErrInvalidDecision
	if !errors.As(err, &invalid) {
		t.Fatalf("want ErrInvalidDecision, got %v", err)
	}
}

func TestRankCandidatesNeutralFallback(t *testing.T) {
	store, _ := testWorkspace()
	engine := NewEngine(store, &mockSearcher{}, &mockClassifier{}, nil)

	candidates := engine.rankCandidates(store.nodes, nil)
	if len(candidates) != len(store.nodes) {
		t.Fatalf("got %d candidates, want all %d nodes", len(candidates), len(store.nodes))
	}
	for _, c := range candidates {
		if c.score != 0.5 {
			t.Errorf("neutral score = %v, want 0.5", c.score)
		}
	}
}

func TestRankCandidatesOrdering(t *testing.T) {
	store, searcher := testWorkspace()
	engine := NewEngine(store, searcher, &mockClassifier{}, nil)

	candidates := engine.rankCandidates(store.nodes, []index.SearchResult{
		{NodeID: "n-2", Score: 0.4},
		{NodeID: "n-1", Score: 0.9},
	})
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates", len(candidates))
	}
	if candidates[0].node.ID != "n-1" || candidates[1].node.ID != "n-2" {
		t.Errorf("candidates not in descending score order")
	}
}
