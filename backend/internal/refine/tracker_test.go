package refine

import (
	"context"
	"errors"
	"testing"
	"time"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	apperrors "neuralearn/backend/pkg/errors"
)

type mockStore struct {
	nodes        map[string]*graph.Node
	topic        *graph.RootTopic
	count        int64
	records      []graph.NodeInteraction
	incrementErr error
	appendErr    error

	updatedSummary string
}

func (m *mockStore) GetNode(ctx context.Context, nodeID string) (*graph.Node, error) {
	if n, ok := m.nodes[nodeID]; ok {
		return n, nil
	}
	return nil, apperrors.NewNodeNotFound(nodeID)
}

func (m *mockStore) GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error) {
	if m.topic != nil && m.topic.ID == topicID {
		return m.topic, nil
	}
	return nil, apperrors.NewTopicNotFound(topicID)
}

func (m *mockStore) IncrementInteractionCount(ctx context.Context, nodeID string) (int64, error) {
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	m.count++
	return m.count, nil
}

func (m *mockStore) AppendInteraction(ctx context.Context, rec *graph.NodeInteraction) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockStore) ListRecentInteractions(ctx context.Context, nodeID string, limit int) ([]graph.NodeInteraction, error) {
	if len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func (m *mockStore) CountInteractions(ctx context.Context, nodeID string) (int64, error) {
	return int64(len(m.records)), nil
}

func (m *mockStore) UpdateSummary(ctx context.Context, nodeID, summary string, refinedAt time.Time) error {
	m.updatedSummary = summary
	return nil
}

type mockSummarizer struct {
	content string
	err     error
	called  bool
}

func (m *mockSummarizer) Generate(ctx context.Context, systemPrompt, userMessage string, toolset []adapter.Tool) (*adapter.Response, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	return &adapter.Response{Content: m.content}, nil
}

type mockIndex struct {
	updatedDoc  string
	updatedText string
}

func (m *mockIndex) Update(ctx context.Context, collectionID, documentID, text string) {
	m.updatedDoc = documentID
	m.updatedText = text
}

func TestShouldRefine(t *testing.T) {
	for count := int64(0); count <= 50; count++ {
		for records := int64(0); records <= 5; records++ {
			want := count > 0 && count%5 == 0 && records >= 3
			if got := ShouldRefine(count, records); got != want {
				t.Errorf("ShouldRefine(%d, %d) = %v, want %v", count, records, got, want)
			}
		}
	}
}

func TestTrackInteractionPersistsRecord(t *testing.T) {
	store := &mockStore{nodes: map[string]*graph.Node{}}
	tracker := NewTracker(store, nil)

	tracker.TrackInteraction(context.Background(), "n-1", "what is X", "X is a thing", nil)

	if store.count != 1 {
		t.Errorf("count = %d", store.count)
	}
	if len(store.records) != 1 {
		t.Fatalf("records = %d", len(store.records))
	}
	rec := store.records[0]
	if rec.NodeID != "n-1" || rec.UserMessage != "what is X" || rec.AIResponse != "X is a thing" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		t.Errorf("record missing id or timestamp: %+v", rec)
	}
}

func TestTrackInteractionSwallowsIncrementFailure(t *testing.T) {
	store := &mockStore{incrementErr: errors.New("store down")}
	tracker := NewTracker(store, nil)

	// Must not panic or surface anything
	tracker.TrackInteraction(context.Background(), "n-1", "q", "a", nil)
	if len(store.records) != 0 {
		t.Error("record appended despite increment failure")
	}
}

func TestTrackInteractionToleratesAppendFailure(t *testing.T) {
	store := &mockStore{appendErr: errors.New("store down")}
	tracker := NewTracker(store, nil)

	tracker.TrackInteraction(context.Background(), "n-1", "q", "a", nil)
	if store.count != 1 {
		t.Error("count increment should survive append failure")
	}
}

func refineFixture() (*mockStore, *mockSummarizer, *mockIndex, *Tracker) {
	store := &mockStore{
		nodes: map[string]*graph.Node{
			"n-1": {
				ID: "n-1", Title: "Gradient Descent",
				Summary:         "Old summary about slopes and minima",
				ParentID:        "root-1",
				RootID:          "root-1",
				IndexDocumentID: "doc-1",
			},
			"root-1": {ID: "root-1", Title: "Machine Learning", Summary: "The study of learning from data", RootID: "root-1"},
		},
		topic: &graph.RootTopic{ID: "root-1", IndexCollectionID: "col-1"},
	}
	llm := &mockSummarizer{content: "Refined summary reflecting the student's questions."}
	idx := &mockIndex{}
	refiner := NewRefiner(store, idx, llm)
	return store, llm, idx, NewTracker(store, refiner)
}

func TestMaybeRefineOnCadence(t *testing.T) {
	store, llm, idx, tracker := refineFixture()
	for i := 0; i < 4; i++ {
		store.records = append(store.records, graph.NodeInteraction{NodeID: "n-1", UserMessage: "q"})
	}

	tracker.MaybeRefine(context.Background(), "n-1", 5)

	if !llm.called {
		t.Fatal("summarizer should run on cadence")
	}
	if store.updatedSummary != "Refined summary reflecting the student's questions." {
		t.Errorf("summary = %q", store.updatedSummary)
	}
	if idx.updatedDoc != "doc-1" {
		t.Errorf("index doc = %q, want doc-1", idx.updatedDoc)
	}
}

func TestMaybeRefineOffCadence(t *testing.T) {
	store, llm, _, tracker := refineFixture()
	for i := 0; i < 4; i++ {
		store.records = append(store.records, graph.NodeInteraction{NodeID: "n-1"})
	}

	tracker.MaybeRefine(context.Background(), "n-1", 4)
	if llm.called {
		t.Error("summarizer must not run off cadence")
	}
}

func TestMaybeRefineTooFewRecords(t *testing.T) {
	store, llm, _, tracker := refineFixture()
	store.records = []graph.NodeInteraction{{NodeID: "n-1"}, {NodeID: "n-1"}}

	tracker.MaybeRefine(context.Background(), "n-1", 5)
	if llm.called {
		t.Error("summarizer must not run with too few records")
	}
}

func TestRefineSwallowsSummarizerFailure(t *testing.T) {
	store, llm, _, tracker := refineFixture()
	llm.err = errors.New("gateway down")
	for i := 0; i < 4; i++ {
		store.records = append(store.records, graph.NodeInteraction{NodeID: "n-1"})
	}

	tracker.MaybeRefine(context.Background(), "n-1", 5)
	if store.updatedSummary != "" {
		t.Error("summary updated despite summarizer failure")
	}
}

func TestRefineSanitizesModelOutput(t *testing.T) {
	store, llm, _, tracker := refineFixture()
	llm.content = "`\"A cleaner summary.\"`"
	for i := 0; i < 4; i++ {
		store.records = append(store.records, graph.NodeInteraction{NodeID: "n-1"})
	}

	tracker.MaybeRefine(context.Background(), "n-1", 5)
	if store.updatedSummary != "A cleaner summary." {
		t.Errorf("summary = %q", store.updatedSummary)
	}
}
