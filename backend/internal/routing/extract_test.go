package routing

import "testing"

func TestCleanQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What is recursion?", "What is recursion?"},
		{"  ...so what is recursion?", "so what is recursion?"},
		{"..what is recursion?", "what is recursion?"},
		{"…and how does it work", "and how does it work"},
		{"   padded   ", "padded"},
	}
	for _, tt := range tests {
		if got := CleanQuestion(tt.in); got != tt.want {
			t.Errorf("CleanQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"What is gradient descent?", "gradient descent"},
		{"what is the chain rule", "chain rule"},
		{"Explain backpropagation", "backpropagation"},
		{"Tell me about neural networks?", "neural networks"},
		{"Who is Alan Turing?", "Alan Turing"},
		{"How does attention work?", "attention work"},
		{"Give me an example of overfitting", "overfitting"},
		{"an example of regularization", "regularization"},
		{"gradient descent example", "gradient descent"},
		{"monads explanation", "monads"},
		{"recursion definition", "recursion"},
		{"why though", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTopic(tt.question); got != tt.want {
			t.Errorf("ExtractTopic(%q) = %q, want %q", tt.question, got, tt.want)
		}
	}
}

func TestTitlesMatch(t *testing.T) {
	tests := []struct {
		topic string
		title string
		want  bool
	}{
		{"gradient descent", "Gradient Descent", true},
		{"self-attention", "Self Attention", true},
		{"self_attention", "Self-Attention", true},
		{"descent", "Gradient Descent", true},
		{"gradient descent algorithms", "Gradient Descent", true},
		{"gradientdescent", "Gradient Descent", true},
		{"gradientdescent method", "Gradient Descent", true},
		{"backprop", "Gradient Descent", false},
		{"", "Gradient Descent", false},
		{"gradient descent", "", false},
	}
	for _, tt := range tests {
		if got := TitlesMatch(tt.topic, tt.title); got != tt.want {
			t.Errorf("TitlesMatch(%q, %q) = %v, want %v", tt.topic, tt.title, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("gradient descent"); got != "Gradient Descent" {
		t.Errorf("TitleCase = %q", got)
	}
	if got := TitleCase(""); got != "" {
		t.Errorf("TitleCase empty = %q", got)
	}
}
