package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/agent"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/routing"
	apperrors "neuralearn/backend/pkg/errors"
)

const trackTimeout = 30 * time.Second

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"index":  s.idx.Health(c.Request.Context()),
	})
}

type createTopicRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (s *server) handleCreateTopic(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	ctx := c.Request.Context()

	existing, err := s.repo.FindTopicByTitle(ctx, title)
	if err != nil {
		s.logger.Error("Topic lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing topics"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "topic already exists",
			"topicId": existing.ID,
		})
		return
	}

	topicID := uuid.NewString()
	now := time.Now().UTC()

	// Collection creation never blocks topic creation; the gateway hands
	// back a fallback id when the index service is down
	collectionID := s.idx.CreateCollection(ctx, title)

	summary := strings.TrimSpace(req.Description)
	if summary == "" {
		summary = fmt.Sprintf("Exploring: %s", title)
	}

	rootNode := &graph.Node{
		ID:            topicID,
		Title:         title,
		Summary:       summary,
		RootID:        topicID,
		Tags:          []string{},
		ChildrenIDs:   []string{},
		AncestorPath:  []string{topicID},
		LastRefinedAt: now,
		CreatedAt:     now,
	}
	ingested := s.idx.Ingest(ctx, collectionID, topicID, title, summary)
	rootNode.IndexDocumentID = ingested.DocumentID
	rootNode.IndexChunkIDs = ingested.ChunkIDs

	topic := &graph.RootTopic{
		ID:                topicID,
		Title:             title,
		Description:       req.Description,
		IndexCollectionID: collectionID,
		NodeCount:         1,
		CreatedAt:         now,
	}

	if err := s.repo.CreateRootTopic(ctx, topic, rootNode); err != nil {
		s.logger.Error("Topic creation failed", zap.Error(err), zap.String("title", title))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create topic"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"topic":    topic,
		"rootNode": rootNode,
	})
}

func (s *server) handleListTopics(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	topics, err := s.repo.ListRootTopics(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("Topic listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list topics"})
		return
	}
	if topics == nil {
		topics = []graph.RootTopic{}
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (s *server) handleRouteQuestion(c *gin.Context) {
	var req routing.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" || req.RootID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and rootId are required"})
		return
	}

	decision, err := s.engine.Route(c.Request.Context(), &req)
	if err != nil {
		s.respondRoutingError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (s *server) respondRoutingError(c *gin.Context, err error) {
	var topicNotFound *apperrors.ErrTopicNotFound
	var nodeNotFound *apperrors.ErrNodeNotFound
	var emptyWorkspace *apperrors.ErrEmptyWorkspace
	var unknownTarget *apperrors.ErrUnknownDecisionTarget
	var invalidDecision *apperrors.ErrInvalidDecision

	switch {
	case errors.As(err, &topicNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "root topic not found", "topicId": topicNotFound.TopicID})
	case errors.As(err, &nodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found", "nodeId": nodeNotFound.NodeID})
	case errors.As(err, &emptyWorkspace):
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace has no nodes", "rootId": emptyWorkspace.RootID})
	case errors.As(err, &unknownTarget):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classifier chose an unknown node", "nodeId": unknownTarget.NodeID})
	case errors.As(err, &invalidDecision):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classifier produced an invalid decision"})
	default:
		s.logger.Error("Routing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "routing failed"})
	}
}

// chatEdge is one edge of the caller's canvas graph. The body carrying any
// edges is the signal that the turn should run against graph context.
type chatEdge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type chatRequest struct {
	Messages  []routing.ChatMessage `json:"messages" binding:"required"`
	Model     string                `json:"model"`
	WebSearch *bool                 `json:"webSearch"`
	Edges     []chatEdge            `json:"edges"`
}

// splitChatMessages separates the turn to resolve from the prior history.
// The last message must be a non-empty user turn.
func splitChatMessages(msgs []routing.ChatMessage) (history []routing.ChatMessage, question string, ok bool) {
	if len(msgs) == 0 {
		return nil, "", false
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return nil, "", false
	}
	return msgs[:len(msgs)-1], last.Content, true
}

func toAdapterHistory(history []routing.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(history))
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, adapter.Message{Role: role, Content: m.Content})
	}
	return out
}

// handleChat answers one user turn against a node. Requests carrying graph
// edges run the full tool loop so the agent can navigate and grow the graph;
// edge-less requests stream a direct tutoring answer.
func (s *server) handleChat(c *gin.Context) {
	nodeID := c.Param("nodeId")

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}
	history, question, ok := splitChatMessages(req.Messages)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "last message must be a user turn"})
		return
	}

	ctx := c.Request.Context()

	node, err := s.repo.GetNode(ctx, nodeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found", "nodeId": nodeID})
		return
	}

	if req.Model != "" {
		s.llm.SetModel(req.Model)
	}

	if len(req.Edges) > 0 {
		webDisabled := req.WebSearch != nil && !*req.WebSearch
		s.chatWithAgent(c, node, question, toAdapterHistory(history), webDisabled)
		return
	}
	s.chatStreaming(c, node, question, history)
}

// chatWithAgent runs the full tool loop and flushes the resolved answer over
// SSE so both chat paths share one wire contract
func (s *server) chatWithAgent(c *gin.Context, node *graph.Node, message string, history []adapter.Message, webDisabled bool) {
	result, err := s.orchestrator.Run(c.Request.Context(), &agent.Request{
		RootID:           node.RootID,
		ActiveNodeID:     node.ID,
		Message:          message,
		History:          history,
		DisableWebSearch: webDisabled,
	})
	if err != nil {
		var maxIter *apperrors.ErrMaxIterations
		if !errors.As(err, &maxIter) {
			s.logger.Error("Agent turn failed", zap.Error(err), zap.String("node_id", node.ID))
			c.JSON(http.StatusBadGateway, gin.H{"error": "agent failed to resolve the question"})
			return
		}
		// Iteration ceiling still yields a usable fallback result
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("token", result.Answer)
	c.SSEvent("done", result)
	c.Writer.Flush()

	trackedNode := result.TargetNodeID
	if trackedNode == "" {
		trackedNode = node.ID
	}
	s.trackAsync(trackedNode, message, result.Answer, nil)
}

func (s *server) chatStreaming(c *gin.Context, node *graph.Node, question string, history []routing.ChatMessage) {
	ctx := c.Request.Context()

	// Pull related index chunks for grounding and citation
	var sources []graph.InteractionSource
	var contextBlock string
	if rootTopic, err := s.repo.GetRootTopic(ctx, node.RootID); err == nil {
		hits := s.idx.Search(ctx, rootTopic.IndexCollectionID, question, 3)
		var sb strings.Builder
		for _, h := range hits {
			if h.Text == "" {
				continue
			}
			sources = append(sources, graph.InteractionSource{
				ChunkID: h.ChunkID,
				Score:   h.Score,
				Text:    h.Text,
			})
			fmt.Fprintf(&sb, "- %s\n", h.Text)
		}
		contextBlock = sb.String()
	}

	systemPrompt := buildChatPrompt(node, contextBlock)

	msgs := append(toAdapterHistory(history), adapter.Message{Role: openai.ChatMessageRoleUser, Content: question})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	full, err := s.llm.GenerateStream(ctx, systemPrompt, msgs, func(delta string) error {
		c.SSEvent("token", delta)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		s.logger.Error("Chat stream failed", zap.Error(err), zap.String("node_id", node.ID))
		c.SSEvent("error", "stream interrupted")
		c.Writer.Flush()
		if full == "" {
			return
		}
	}

	c.SSEvent("done", gin.H{"nodeId": node.ID})
	c.Writer.Flush()

	s.trackAsync(node.ID, question, full, sources)
}

// trackAsync records the resolved turn off the request path. Tracking and
// refinement are best-effort and must not hold the response open.
func (s *server) trackAsync(nodeID, userMessage, aiResponse string, sources []graph.InteractionSource) {
	if aiResponse == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		s.tracker.TrackInteraction(ctx, nodeID, userMessage, aiResponse, sources)
	}()
}

func buildChatPrompt(node *graph.Node, contextBlock string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a patient tutor helping a student understand %q.\n", node.Title)
	fmt.Fprintf(&sb, "Topic summary: %s\n", node.Summary)
	if len(node.Tags) > 0 {
		fmt.Fprintf(&sb, "Related keywords: %s\n", strings.Join(node.Tags, ", "))
	}
	if contextBlock != "" {
		sb.WriteString("\nRelated material from the student's graph:\n")
		sb.WriteString(contextBlock)
	}
	sb.WriteString("\nAnswer clearly and concretely. Use examples when they help.")
	return sb.String()
}
