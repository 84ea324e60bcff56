package core

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var systemPlannerPrompt = `
You are the tool-routing stage of an assistant. You never answer the user
yourself. Given the conversation, decide which of the available tools, if
any, are needed to answer the latest user message.

<tools>
{{tools}}
</tools>

Rules:
1. Select only tools from the list above, and only when they genuinely help.
2. Prefer no tools for greetings, opinions, and questions answerable from the conversation alone.
3. Requests to generate, create, draw, or render an image need the image_gen tool.
4. Provide every required parameter in valid JSON.
5. Emit at most {{max_steps}} tool calls, in the order they should run.

Reply with exactly one plan block and nothing else:

<plan>
<tool_call>
  <tool_name>name_of_the_tool</tool_name>
  <parameters>{"param1": "value1"}</parameters>
</tool_call>
</plan>

An empty <plan></plan> means no tool is needed.
`

var planRegEx = regexp.MustCompile(`(?s)<plan>(.*?)</plan>`)
var toolCallRegEx = regexp.MustCompile(`(?s)<tool_call>\s*<tool_name>(.*?)</tool_name>\s*<parameters>\s*(.*?)\s*</parameters>\s*</tool_call>`)

// ErrPlanParse marks planner model output that could not be turned into a
// valid bounded plan. Callers never see it; the planner substitutes the
// fallback plan instead.
var ErrPlanParse = fmt.Errorf("plan parse failure")

// Planner asks the model which tools a user turn requires and parses its
// structured reply. Purely advisory: no tool is invoked here, and planning
// never fails — any model outage or malformed reply degrades to a single
// chat step.
type Planner struct {
	llm         LLM
	tools       []ToolDescriptor
	maxSteps    int
	historySize int
	logger      *zap.Logger
}

func NewPlanner(llm LLM, tools []ToolDescriptor, maxSteps int, logger *zap.Logger) *Planner {
	if maxSteps <= 0 {
		maxSteps = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		llm:         llm,
		tools:       tools,
		maxSteps:    maxSteps,
		historySize: 12,
		logger:      logger,
	}
}

// Plan issues one model call and returns the ordered tool steps for this
// turn. Step numbers follow planner emission order, starting at 1.
func (p *Planner) Plan(ctx context.Context, messages []Message) []*ToolStep {
	out, err := p.llm.Generate(ctx, p.prompt(), recentWindow(messages, p.historySize))
	if err != nil {
		p.logger.Warn("planner model call failed, using fallback plan", zap.Error(err))
		return FallbackSteps()
	}

	steps, err := p.parse(out.Text)
	if err != nil {
		p.logger.Warn("planner output rejected, using fallback plan",
			zap.Error(err),
			zap.Int("rawLen", len(out.Text)))
		return FallbackSteps()
	}
	return steps
}

func (p *Planner) prompt() string {
	toolsStr := []byte("[]")
	if len(p.tools) > 0 {
		b, err := json.Marshal(p.tools)
		if err == nil {
			toolsStr = b
		}
	}
	return ReplaceLabels(systemPlannerPrompt, map[string]string{
		"tools":     string(toolsStr),
		"max_steps": fmt.Sprintf("%d", p.maxSteps),
	})
}

// parse validates the raw model text against the expected plan structure.
// Anything off-contract — no plan block, bad parameter JSON, an undeclared
// tool name, too many steps — is a parse failure; the model's output is
// untrusted and is never accessed optimistically.
func (p *Planner) parse(raw string) ([]*ToolStep, error) {
	planMatch := planRegEx.FindStringSubmatch(raw)
	if planMatch == nil {
		return nil, fmt.Errorf("%w: no plan block in output", ErrPlanParse)
	}
	body := planMatch[1]

	matches := toolCallRegEx.FindAllStringSubmatch(body, -1)
	if len(matches) > p.maxSteps {
		return nil, fmt.Errorf("%w: %d steps exceeds limit %d", ErrPlanParse, len(matches), p.maxSteps)
	}

	var steps []*ToolStep
	for i, match := range matches {
		name := ToolName(strings.TrimSpace(match[1]))
		if !name.Valid() {
			return nil, fmt.Errorf("%w: unknown tool %q", ErrPlanParse, string(name))
		}

		args := map[string]any{}
		paramsJSON := strings.TrimSpace(match[2])
		if paramsJSON != "" {
			if err := json.Unmarshal([]byte(paramsJSON), &args); err != nil {
				return nil, fmt.Errorf("%w: bad parameters for tool %s: %v", ErrPlanParse, name, err)
			}
		}

		steps = append(steps, &ToolStep{
			StepNumber: i + 1,
			ToolCall:   ToolCall{Tool: name, Arguments: args},
			State:      StepPending,
		})
	}
	return steps, nil
}

// FallbackSteps is the substitute plan used whenever planning cannot produce
// a valid one: a single chat step with empty arguments, routed straight to
// composition.
func FallbackSteps() []*ToolStep {
	return []*ToolStep{{
		StepNumber: 1,
		ToolCall:   ToolCall{Tool: ToolChat, Arguments: map[string]any{}},
		State:      StepPending,
		Notes:      "fallback plan",
	}}
}

// recentWindow bounds the history handed to the model to the last n entries.
func recentWindow(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
