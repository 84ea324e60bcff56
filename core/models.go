package core

// Message roles accepted on the chat boundary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history. Owned by the caller and
// passed by value into the pipeline; never mutated after creation.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system tool"`
	Content string `json:"content" binding:"required"`
}

func NewMessage(role string, content string) Message {
	return Message{Role: role, Content: content}
}

// ToolName identifies one auxiliary capability the planner may route to.
type ToolName string

const (
	ToolChat         ToolName = "chat"
	ToolWebSearch    ToolName = "web_search"
	ToolCodeExec     ToolName = "code_exec"
	ToolImageGen     ToolName = "image_gen"
	ToolMemorySearch ToolName = "memory_search"
	ToolBrowserFetch ToolName = "browser_fetch"
	ToolVision       ToolName = "vision"
)

var knownTools = map[ToolName]bool{
	ToolChat:         true,
	ToolWebSearch:    true,
	ToolCodeExec:     true,
	ToolImageGen:     true,
	ToolMemorySearch: true,
	ToolBrowserFetch: true,
	ToolVision:       true,
}

// Valid reports whether the identifier is one of the declared tool names.
// Anything else coming back from the planner model is a parse failure.
func (t ToolName) Valid() bool {
	return knownTools[t]
}

// ToolCall is one tool invocation the planner asked for. Arguments are
// tool-specific and validated by the adapter, not by the dispatcher.
type ToolCall struct {
	Tool      ToolName       `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the normalized outcome of one dispatch. Exactly one of
// Payload/Error is set; DurationMs is always measured.
type ToolResult struct {
	Payload    map[string]any `json:"payload,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs"`
}

// Failed reports whether the invocation ended in an error.
func (r *ToolResult) Failed() bool {
	return r.Error != ""
}

// StepState is the inner lifecycle of one tool step. A failed step never
// aborts the outer pipeline.
type StepState string

const (
	StepPending   StepState = "pending"
	StepRunning   StepState = "running"
	StepSucceeded StepState = "succeeded"
	StepFailed    StepState = "failed"
)

// ToolStep is one planner-emitted step. StepNumber values are strictly
// increasing from 1 in planner emission order; Result is non-nil after
// dispatch, success or failure.
type ToolStep struct {
	StepNumber int         `json:"stepNumber"`
	ToolCall   ToolCall    `json:"toolCall"`
	Result     *ToolResult `json:"result,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	State      StepState   `json:"state"`
}

// PlanState tracks the outer pipeline of one agent turn.
type PlanState string

const (
	PlanReceived  PlanState = "received"
	PlanPlanning  PlanState = "planning"
	PlanExecuting PlanState = "executing_tools"
	PlanComposing PlanState = "composing"
	PlanDone      PlanState = "done"
	PlanFailed    PlanState = "failed"
)

// AgentPlan is the per-request pipeline record: the ordered tool steps and,
// once the composer has run, the final answer. Created fresh for every turn
// and discarded after the response is written.
type AgentPlan struct {
	Steps       []*ToolStep `json:"steps"`
	FinalAnswer string      `json:"finalAnswer,omitempty"`
	Persona     string      `json:"persona"`
	State       PlanState   `json:"state"`
}

// ImageArtifact is what a generated image step carries back to the caller.
// The raw bytes stay out of any prompt sent to a model; the composer only
// ever sees a textual summary.
type ImageArtifact struct {
	ID         string `json:"imageId"`
	MimeType   string `json:"mimeType"`
	DataBase64 string `json:"dataBase64"`
	Seed       int64  `json:"seed"`
	Prompt     string `json:"prompt"`
}

// Payload keys shared between the image adapter and the composer.
const (
	PayloadKeyImageID   = "imageId"
	PayloadKeyImageData = "dataBase64"
	PayloadKeyImageMime = "mimeType"
	PayloadKeyImageSeed = "seed"
	PayloadKeyPrompt    = "prompt"
	PayloadKeyInfo      = "info"

	PayloadNotImplemented = "not implemented"
)
