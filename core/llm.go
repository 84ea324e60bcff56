package core

import "context"

type LLMOutput struct {
	Text  string
	Stats Stats
}

type Stats struct {
	InputTokenCount  int32 `json:"input_token_count,omitempty"`
	OutputTokenCount int32 `json:"output_token_count,omitempty"`
	TotalTokenCount  int32 `json:"total_token_count,omitempty"`
}

// LLM is the chat-completion boundary shared by the planner and the composer:
// one ordered message list in, generated text out. Implementations must honor
// the context deadline; a timeout is reported as an ordinary error.
type LLM interface {
	Generate(ctx context.Context, systemContext string, history []Message) (LLMOutput, error)
}
