package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestBaseErrorFormatting(t *testing.T) {
	plain := NewBaseError(ErrorTypeGraph, "query failed", nil)
	if plain.Error() != "[graph] query failed" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := fmt.Errorf("connection refused")
	wrapped := NewBaseError(ErrorTypeIndex, "search failed", cause)
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Errorf("cause missing from message: %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

func TestTypedErrorsMatchWithAs(t *testing.T) {
	wrap := func(err error) error {
		return fmt.Errorf("outer: %w", err)
	}

	var nodeNotFound *ErrNodeNotFound
	if !errors.As(wrap(NewNodeNotFound("n-1")), &nodeNotFound) {
		t.Fatal("ErrNodeNotFound not matched through wrapping")
	}
	if nodeNotFound.NodeID != "n-1" {
		t.Errorf("NodeID = %s", nodeNotFound.NodeID)
	}

	var missing *ErrConfigMissingRequired
	if !errors.As(wrap(NewConfigMissingRequired("NEO4J_URI")), &missing) {
		t.Fatal("ErrConfigMissingRequired not matched through wrapping")
	}
	if missing.Field != "NEO4J_URI" {
		t.Errorf("Field = %s", missing.Field)
	}

	var invalidInput *ErrInvalidToolInput
	if !errors.As(wrap(NewInvalidToolInput("create_node", "title too long")), &invalidInput) {
		t.Fatal("ErrInvalidToolInput not matched through wrapping")
	}
	if invalidInput.ToolName != "create_node" || invalidInput.Reason != "title too long" {
		t.Errorf("tool=%s reason=%s", invalidInput.ToolName, invalidInput.Reason)
	}
}

func TestAgentLLMFailedCarriesContext(t *testing.T) {
	cause := fmt.Errorf("504 gateway timeout")
	err := NewAgentLLMFailed("openrouter/openai/gpt-4o", 3, cause)

	if err.Model != "openrouter/openai/gpt-4o" || err.Attempts != 3 {
		t.Errorf("model=%s attempts=%d", err.Model, err.Attempts)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
}
