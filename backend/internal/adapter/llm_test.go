package adapter

import (
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestParseJSONArguments(t *testing.T) {
	args, err := parseJSONArguments(`{"query":"gradient descent","top_k":3}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if args["query"] != "gradient descent" {
		t.Errorf("query = %v", args["query"])
	}
	if args["top_k"] != float64(3) {
		t.Errorf("top_k = %v", args["top_k"])
	}
}

func TestParseJSONArgumentsEmpty(t *testing.T) {
	args, err := parseJSONArguments("")
	if err != nil {
		t.Fatalf("empty arguments should parse: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestParseJSONArgumentsMalformed(t *testing.T) {
	if _, err := parseJSONArguments(`{"query":`); err == nil {
		t.Fatal("malformed arguments should fail")
	}
}

func TestToOpenAIMessageReplaysToolCalls(t *testing.T) {
	msg := toOpenAIMessage(Message{
		Role:    openai.ChatMessageRoleAssistant,
		Content: "",
		ToolCalls: []ToolCall{{
			ID:           "call-1",
			Name:         "search_nodes",
			Arguments:    map[string]interface{}{"query": "x"},
			RawArguments: `{"query":"x"}`,
		}},
	})

	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "call-1" || tc.Function.Name != "search_nodes" {
		t.Errorf("tool call = %+v", tc)
	}
	// The raw JSON must be replayed byte for byte, not re-marshaled
	if tc.Function.Arguments != `{"query":"x"}` {
		t.Errorf("arguments = %q", tc.Function.Arguments)
	}
}

func TestToOpenAIMessageToolTurn(t *testing.T) {
	msg := toOpenAIMessage(Message{
		Role:       openai.ChatMessageRoleTool,
		Content:    `{"success":true}`,
		ToolCallID: "call-1",
	})
	if msg.ToolCallID != "call-1" || msg.Content != `{"success":true}` {
		t.Errorf("message = %+v", msg)
	}
}
