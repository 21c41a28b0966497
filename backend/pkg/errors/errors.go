package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph store errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeIndex represents semantic index errors
	ErrorTypeIndex ErrorType = "index"
	// ErrorTypeRouting represents routing engine errors
	ErrorTypeRouting ErrorType = "routing"
	// ErrorTypeAgent represents agent/LLM-related errors
	ErrorTypeAgent ErrorType = "agent"
	// ErrorTypeTool represents tool execution errors
	ErrorTypeTool ErrorType = "tool"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrNodeNotFound is returned when a node id has no backing entity
type ErrNodeNotFound struct {
	*BaseError
	NodeID string
}

func NewNodeNotFound(nodeID string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("node not found: %s", nodeID), nil),
		NodeID:    nodeID,
	}
}

// ErrTopicNotFound is returned when a root topic id has no backing entity
type ErrTopicNotFound struct {
	*BaseError
	TopicID string
}

func NewTopicNotFound(topicID string) *ErrTopicNotFound {
	return &ErrTopicNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("root topic not found: %s", topicID), nil),
		TopicID:   topicID,
	}
}

// ErrEmptyWorkspace is returned when a root has no nodes at all. It is
// distinct from not-found: the root topic exists but its graph is empty.
type ErrEmptyWorkspace struct {
	*BaseError
	RootID string
}

func NewEmptyWorkspace(rootID string) *ErrEmptyWorkspace {
	return &ErrEmptyWorkspace{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("no nodes found under root: %s", rootID), nil),
		RootID:    rootID,
	}
}

// ErrGraphQueryFailed is returned when a store query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Routing Errors

// ErrUnknownDecisionTarget is returned when the classifier names a node id
// that does not exist in the loaded workspace.
type ErrUnknownDecisionTarget struct {
	*BaseError
	NodeID string
}

func NewUnknownDecisionTarget(nodeID string) *ErrUnknownDecisionTarget {
	return &ErrUnknownDecisionTarget{
		BaseError: NewBaseError(ErrorTypeRouting, fmt.Sprintf("decision references unknown node: %s", nodeID), nil),
		NodeID:    nodeID,
	}
}

// ErrInvalidDecision is returned when the classifier output has no usable action
type ErrInvalidDecision struct {
	*BaseError
	Action string
}

func NewInvalidDecision(action string) *ErrInvalidDecision {
	return &ErrInvalidDecision{
		BaseError: NewBaseError(ErrorTypeRouting, fmt.Sprintf("invalid routing decision: %q", action), nil),
		Action:    action,
	}
}

// Agent Errors

// ErrAgentLLMFailed is returned when an LLM request fails
type ErrAgentLLMFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewAgentLLMFailed(model string, attempts int, err error) *ErrAgentLLMFailed {
	return &ErrAgentLLMFailed{
		BaseError: NewBaseError(ErrorTypeAgent, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrMaxIterations is returned when the agent loop hits its iteration ceiling
type ErrMaxIterations struct {
	*BaseError
	Limit int
}

func NewMaxIterations(limit int) *ErrMaxIterations {
	return &ErrMaxIterations{
		BaseError: NewBaseError(ErrorTypeAgent, fmt.Sprintf("tool loop aborted after %d iterations", limit), nil),
		Limit:     limit,
	}
}

// Tool Errors

// ErrToolNotFound is returned when a requested tool is not in the closed set
type ErrToolNotFound struct {
	*BaseError
	ToolName string
}

func NewToolNotFound(toolName string) *ErrToolNotFound {
	return &ErrToolNotFound{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("tool not found: %s", toolName), nil),
		ToolName:  toolName,
	}
}

// ErrInvalidToolInput is returned when tool arguments fail validation
type ErrInvalidToolInput struct {
	*BaseError
	ToolName string
	Reason   string
}

func NewInvalidToolInput(toolName, reason string) *ErrInvalidToolInput {
	return &ErrInvalidToolInput{
		BaseError: NewBaseError(ErrorTypeTool, fmt.Sprintf("invalid input for %s: %s", toolName, reason), nil),
		ToolName:  toolName,
		Reason:    reason,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}
