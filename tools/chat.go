package tools

import (
	"context"

	"lumina/agent-api/core"
)

// ChatAdapter is the no-tool tool: selected when a turn needs nothing beyond
// the conversation itself, and as the planner's fallback. Dispatching it is a
// no-op so fallback plans flow through the registry like any other step.
type ChatAdapter struct{}

func NewChatAdapter() *ChatAdapter {
	return &ChatAdapter{}
}

func (a *ChatAdapter) Name() core.ToolName {
	return core.ToolChat
}

func (a *ChatAdapter) Describe() core.ToolDescriptor {
	return core.ToolDescriptor{
		Name:        core.ToolChat,
		Description: "Answer directly from the conversation. Use when no auxiliary capability is needed.",
	}
}

func (a *ChatAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{core.PayloadKeyInfo: "no auxiliary tool required"}, nil
}
