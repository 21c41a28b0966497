package agent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"neuralearn/backend/internal/adapter"
	"neuralearn/backend/internal/graph"
	"neuralearn/backend/internal/tools"
	apperrors "neuralearn/backend/pkg/errors"
	"neuralearn/backend/pkg/logger"
)

// Loop states, reported on the result for observability
const (
	StateAwaitingModel  = "awaiting_model"
	StateExecutingTools = "executing_tools"
	StateDone           = "done"
	StateAbortedByLimit = "aborted_by_limit"
)

// MaxIterations bounds the tool loop. Each iteration is one model turn plus
// the execution of every tool call it requested.
const MaxIterations = 5

// Final actions the agent may report alongside its answer
const (
	FinalActionNavigate = "navigate"
	FinalActionCreate   = "create"
	FinalActionNone     = "none"
)

// Store is the slice of the graph repository the orchestrator needs
type Store interface {
	GetRootTopic(ctx context.Context, topicID string) (*graph.RootTopic, error)
	GetNode(ctx context.Context, nodeID string) (*graph.Node, error)
	FindNodesByRoot(ctx context.Context, rootID string) ([]graph.Node, error)
}

// LLM is the conversation primitive the loop re-invokes
type LLM interface {
	GenerateWithHistory(ctx context.Context, systemPrompt string, msgs []adapter.Message, toolset []adapter.Tool) (*adapter.Response, error)
}

// ToolRunner executes one tool call
type ToolRunner interface {
	Execute(ctx context.Context, execCtx *tools.ExecutionContext, call adapter.ToolCall) *tools.ToolResult
}

// Request is one user turn handed to the orchestrator. History carries the
// prior conversation turns verbatim; Message is the turn to resolve.
type Request struct {
	RootID           string
	ActiveNodeID     string
	Message          string
	History          []adapter.Message
	DisableWebSearch bool
}

// Result is the resolved outcome of a turn
type Result struct {
	Answer         string   `json:"answer"`
	Action         string   `json:"action"`
	TargetNodeID   string   `json:"targetNodeId,omitempty"`
	CreatedNodeIDs []string `json:"createdNodeIds,omitempty"`
	Iterations     int      `json:"iterations"`
	State          string   `json:"state"`
}

// finalDecision is the JSON envelope the agent is instructed to end with
type finalDecision struct {
	Answer       string `json:"answer"`
	Action       string `json:"action"`
	TargetNodeID string `json:"targetNodeId,omitempty"`
}

// Orchestrator runs the bounded tool loop: model turn, tool execution,
// repeat, until the model answers in plain text or a limit trips.
type Orchestrator struct {
	store    Store
	llm      LLM
	executor ToolRunner
	timeout  time.Duration
	logger   *zap.Logger
}

// NewOrchestrator creates an orchestrator with a per-turn duration ceiling
func NewOrchestrator(store Store, llm LLM, executor ToolRunner, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		store:    store,
		llm:      llm,
		executor: executor,
		timeout:  timeout,
		logger:   logger.Get(),
	}
}

// Run resolves one user turn against the workspace
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	rootTopic, err := o.store.GetRootTopic(ctx, req.RootID)
	if err != nil {
		return nil, err
	}

	var activeNode *graph.Node
	if req.ActiveNodeID != "" {
		activeNode, err = o.store.GetNode(ctx, req.ActiveNodeID)
		if err != nil {
			return nil, err
		}
	}

	nodes, err := o.store.FindNodesByRoot(ctx, req.RootID)
	if err != nil {
		return nil, err
	}

	systemPrompt := buildSystemPrompt(rootTopic, activeNode, nodes)
	toolset := tools.GetAllTools()

	execCtx := &tools.ExecutionContext{
		RootID:           req.RootID,
		ActiveNodeID:     req.ActiveNodeID,
		DisableWebSearch: req.DisableWebSearch,
	}
	if execCtx.ActiveNodeID == "" {
		execCtx.ActiveNodeID = req.RootID
	}

	msgs := make([]adapter.Message, 0, len(req.History)+1)
	msgs = append(msgs, req.History...)
	msgs = append(msgs, adapter.Message{Role: openai.ChatMessageRoleUser, Content: req.Message})

	var createdNodeIDs []string

	for iteration := 1; iteration <= MaxIterations; iteration++ {
		o.logger.Debug("Agent iteration",
			zap.Int("iteration", iteration),
			zap.String("state", StateAwaitingModel),
		)

		resp, err := o.llm.GenerateWithHistory(ctx, systemPrompt, msgs, toolset)
		if err != nil {
			return nil, apperrors.NewBaseError(apperrors.ErrorTypeAgent, "model turn failed", err)
		}

		// Plain text ends the loop
		if len(resp.ToolCalls) == 0 {
			result := o.finalize(resp.Content, execCtx.ActiveNodeID)
			result.CreatedNodeIDs = createdNodeIDs
			result.Iterations = iteration
			return result, nil
		}

		// Replay the assistant turn verbatim, then answer every tool call in
		// order as tool turns before re-invoking the model
		msgs = append(msgs, adapter.Message{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			o.logger.Debug("Agent iteration",
				zap.Int("iteration", iteration),
				zap.String("state", StateExecutingTools),
				zap.String("tool", call.Name),
			)

			toolResult := o.executor.Execute(ctx, execCtx, call)
			o.applySideEffects(call, toolResult, execCtx, &createdNodeIDs)

			payload, err := json.Marshal(toolResult)
			if err != nil {
				payload = []byte(`{"success":false,"error":"failed to encode tool result"}`)
			}
			msgs = append(msgs, adapter.Message{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(payload),
				ToolCallID: call.ID,
			})
		}
	}

	o.logger.Warn("Agent hit iteration ceiling",
		zap.Int("limit", MaxIterations),
		zap.String("root_id", req.RootID),
	)
	return &Result{
		Answer:         "I could not finish working through that question. Try rephrasing it or asking something more specific.",
		Action:         FinalActionNone,
		TargetNodeID:   execCtx.ActiveNodeID,
		CreatedNodeIDs: createdNodeIDs,
		Iterations:     MaxIterations,
		State:          StateAbortedByLimit,
	}, apperrors.NewMaxIterations(MaxIterations)
}

// applySideEffects tracks activation and creation visible to the caller
func (o *Orchestrator) applySideEffects(call adapter.ToolCall, res *tools.ToolResult, execCtx *tools.ExecutionContext, created *[]string) {
	if res == nil || !res.Success {
		return
	}
	data, _ := res.Data.(map[string]interface{})

	switch call.Name {
	case tools.ToolSetActiveNode:
		if id, ok := data["active_node_id"].(string); ok && id != "" {
			execCtx.ActiveNodeID = id
		}
	case tools.ToolCreateNode:
		if id, ok := data["id"].(string); ok && id != "" {
			*created = append(*created, id)
			execCtx.ActiveNodeID = id
		}
	}
}

// finalize interprets the model's closing text. A malformed or absent JSON
// envelope never fails the turn; the raw text becomes the answer and the
// action degrades to none.
func (o *Orchestrator) finalize(content, activeNodeID string) *Result {
	result := &Result{
		Answer:       strings.TrimSpace(content),
		Action:       FinalActionNone,
		TargetNodeID: activeNodeID,
		State:        StateDone,
	}

	raw := strings.TrimSpace(content)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return result
	}

	var decision finalDecision
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decision); err != nil {
		o.logger.Debug("No parseable final decision, using raw text", zap.Error(err))
		return result
	}
	if decision.Answer == "" {
		return result
	}

	result.Answer = decision.Answer
	switch decision.Action {
	case FinalActionNavigate, FinalActionCreate:
		result.Action = decision.Action
		if decision.TargetNodeID != "" {
			result.TargetNodeID = decision.TargetNodeID
		}
	default:
		result.Action = FinalActionNone
	}
	return result
}
