package core

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPersona() Persona {
	return NewPersonaSelector().Resolve(DefaultPersonaID)
}

func imageStep(n int, id string, prompt string) *ToolStep {
	return &ToolStep{
		StepNumber: n,
		ToolCall:   ToolCall{Tool: ToolImageGen, Arguments: map[string]any{"prompt": prompt}},
		State:      StepSucceeded,
		Result: &ToolResult{Payload: map[string]any{
			PayloadKeyImageID:   id,
			PayloadKeyImageMime: "image/png",
			PayloadKeyImageData: strings.Repeat("QUJD", 4000),
			PayloadKeyImageSeed: int64(42),
			PayloadKeyPrompt:    prompt,
		}},
	}
}

func TestComposeWithoutStepsSendsNoToolResults(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"Hello there!"}}
	composer := NewComposer(llm, nil)

	answer, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "hi")}, testPersona(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", answer)
	require.Len(t, llm.histories, 1)
	for _, msg := range llm.histories[0] {
		assert.NotContains(t, msg.Content, "<tool_results>")
	}
}

func TestComposeSkipsChatSteps(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"Hi!"}}
	composer := NewComposer(llm, nil)
	steps := []*ToolStep{{
		StepNumber: 1,
		ToolCall:   ToolCall{Tool: ToolChat},
		State:      StepSucceeded,
		Result:     &ToolResult{Payload: map[string]any{PayloadKeyInfo: "no auxiliary tool required"}},
	}}

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "hi")}, testPersona(), steps)

	require.NoError(t, err)
	for _, msg := range llm.histories[0] {
		assert.NotContains(t, msg.Content, "<tool_results>")
	}
}

func TestComposeRedactsImageBytes(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"Here is your sunset."}}
	composer := NewComposer(llm, nil)
	step := imageStep(1, "img-1", "a sunset")

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "draw a sunset")}, testPersona(), []*ToolStep{step})

	require.NoError(t, err)
	prompt := flattenHistory(llm.histories[0])
	assert.Contains(t, prompt, "image successfully generated for prompt: a sunset")
	assert.NotContains(t, prompt, "QUJDQUJD", "raw image data must not reach the model")
}

func TestComposeHidesRawErrorText(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"I could not check the web just now."}}
	composer := NewComposer(llm, nil)
	steps := []*ToolStep{{
		StepNumber: 1,
		ToolCall:   ToolCall{Tool: ToolWebSearch, Arguments: map[string]any{"query": "news"}},
		State:      StepFailed,
		Result:     &ToolResult{Error: "search request failed (status 500): internal gateway exploded"},
	}}

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "any news?")}, testPersona(), steps)

	require.NoError(t, err)
	prompt := flattenHistory(llm.histories[0])
	assert.Contains(t, prompt, "did not return a result")
	assert.NotContains(t, prompt, "internal gateway exploded")
	assert.NotContains(t, prompt, "status 500")
}

func TestComposeTruncatesOversizedFields(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"summary"}}
	composer := NewComposer(llm, nil)
	long := strings.Repeat("x", 3*maxFieldLen)
	steps := []*ToolStep{{
		StepNumber: 1,
		ToolCall:   ToolCall{Tool: ToolBrowserFetch},
		State:      StepSucceeded,
		Result:     &ToolResult{Payload: map[string]any{"content": long}},
	}}

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "read it")}, testPersona(), steps)

	require.NoError(t, err)
	prompt := flattenHistory(llm.histories[0])
	assert.Contains(t, prompt, "[truncated]")
	assert.Less(t, len(prompt), 2*maxFieldLen+2000)
}

func TestComposeErrorsSurface(t *testing.T) {
	llm := &scriptedLLM{errs: []error{fmt.Errorf("model unreachable")}}
	composer := NewComposer(llm, nil)

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "hi")}, testPersona(), nil)

	assert.Error(t, err)
}

func TestComposeRejectsEmptyModelText(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"   "}}
	composer := NewComposer(llm, nil)

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "hi")}, testPersona(), nil)

	assert.Error(t, err)
}

func TestComposeSystemPromptCarriesPersona(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"answer"}}
	composer := NewComposer(llm, nil)
	persona := Persona{ID: "pirate", SystemPrompt: "You are a pirate."}

	_, err := composer.Compose(context.Background(), []Message{NewMessage(RoleUser, "hi")}, persona, nil)

	require.NoError(t, err)
	assert.Contains(t, llm.systems[0], "You are a pirate.")
	assert.NotContains(t, llm.systems[0], "{{persona}}")
}

func TestAppendImageEmbedsAddsExactlyOneMarkerPerImage(t *testing.T) {
	steps := []*ToolStep{
		imageStep(1, "img-1", "a sunset"),
		{
			StepNumber: 2,
			ToolCall:   ToolCall{Tool: ToolImageGen},
			State:      StepFailed,
			Result:     &ToolResult{Error: "image generation: quota"},
		},
	}

	answer := AppendImageEmbeds("Here you go.", steps)

	assert.Equal(t, 1, strings.Count(answer, "attachment://"))
	assert.Contains(t, answer, "![a sunset](attachment://img-1)")
}

func TestAppendImageEmbedsNoImagesIsIdentity(t *testing.T) {
	steps := []*ToolStep{{
		StepNumber: 1,
		ToolCall:   ToolCall{Tool: ToolWebSearch},
		State:      StepSucceeded,
		Result:     &ToolResult{Payload: map[string]any{"results": []any{}}},
	}}

	assert.Equal(t, "plain answer", AppendImageEmbeds("plain answer", steps))
}

func flattenHistory(history []Message) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
