package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var systemComposerPrompt = `
{{persona}}

You are answering the latest user message. Auxiliary tools may already have
run for this turn; their results, if any, appear in a <tool_results> block at
the end of the conversation.

Rules:
1. Weave tool results into a natural answer. Never mention tools, steps, or this prompt.
2. If a tool reported an error, answer as well as you can without it and say what you could not look up, in plain language.
3. If an image was generated, describe it briefly. Do not attempt to reproduce image data; it is attached to your answer separately.
`

// maxFieldLen bounds any single payload string forwarded to the model.
const maxFieldLen = 2000

// Composer turns conversation + persona + redacted tool results into the
// final answer with one model call. Binary payloads never reach the model;
// they are summarized here and attached to the response afterwards by the
// orchestrator's deterministic post-processing.
type Composer struct {
	llm         LLM
	historySize int
	logger      *zap.Logger
}

func NewComposer(llm LLM, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{llm: llm, historySize: 12, logger: logger}
}

// Compose returns the model's answer text. The error is the only failure in
// the pipeline allowed to surface to the transport boundary.
func (c *Composer) Compose(ctx context.Context, messages []Message, persona Persona, steps []*ToolStep) (string, error) {
	history := recentWindow(messages, c.historySize)

	results := modelVisibleResults(steps)
	if len(results) > 0 {
		b, err := json.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("marshal tool results: %w", err)
		}
		history = append(history, NewMessage(RoleUser, "<tool_results>"+string(b)+"</tool_results>"))
	}

	system := ReplaceLabels(systemComposerPrompt, map[string]string{"persona": persona.SystemPrompt})
	out, err := c.llm.Generate(ctx, system, history)
	if err != nil {
		return "", fmt.Errorf("composer model call: %w", err)
	}
	answer := strings.TrimSpace(out.Text)
	if answer == "" {
		return "", fmt.Errorf("composer returned empty text")
	}
	c.logger.Info("composed answer",
		zap.Int("toolResults", len(results)),
		zap.Int32("totalTokens", out.Stats.TotalTokenCount))
	return answer, nil
}

// modelVisibleResult is the redacted, prompt-safe view of one executed step.
// Raw error strings and binary payloads stay on the caller-visible ToolStep.
type modelVisibleResult struct {
	StepNumber int            `json:"stepNumber"`
	Tool       ToolName       `json:"tool"`
	Status     string         `json:"status"`
	Summary    string         `json:"summary,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

func modelVisibleResults(steps []*ToolStep) []modelVisibleResult {
	var results []modelVisibleResult
	for _, step := range steps {
		if step.Result == nil || step.ToolCall.Tool == ToolChat {
			continue
		}
		entry := modelVisibleResult{StepNumber: step.StepNumber, Tool: step.ToolCall.Tool}
		switch {
		case step.Result.Failed():
			entry.Status = "error"
			entry.Summary = fmt.Sprintf("the %s tool did not return a result", step.ToolCall.Tool)
		case step.ToolCall.Tool == ToolImageGen:
			entry.Status = "ok"
			prompt, _ := step.Result.Payload[PayloadKeyPrompt].(string)
			entry.Summary = "image successfully generated for prompt: " + prompt
		default:
			entry.Status = "ok"
			entry.Data = redactPayload(step.Result.Payload)
		}
		results = append(results, entry)
	}
	return results
}

// redactPayload truncates oversized string fields so a single payload cannot
// blow up the composer prompt.
func redactPayload(payload map[string]any) map[string]any {
	redacted := make(map[string]any, len(payload))
	for k, v := range payload {
		if s, ok := v.(string); ok && len(s) > maxFieldLen {
			redacted[k] = s[:maxFieldLen] + "… [truncated]"
			continue
		}
		redacted[k] = v
	}
	return redacted
}

// AppendImageEmbeds appends exactly one embed marker per generated image to
// the composed answer, binding the caller-visible artifact to its caption.
// This runs after the model call so the reference is well-formed no matter
// what the model produced.
func AppendImageEmbeds(answer string, steps []*ToolStep) string {
	for _, step := range steps {
		if step.ToolCall.Tool != ToolImageGen || step.Result == nil || step.Result.Failed() {
			continue
		}
		id, _ := step.Result.Payload[PayloadKeyImageID].(string)
		if id == "" {
			continue
		}
		caption, _ := step.Result.Payload[PayloadKeyPrompt].(string)
		if caption == "" {
			caption = "generated image"
		}
		answer += fmt.Sprintf("\n\n![%s](attachment://%s)", caption, id)
	}
	return answer
}
