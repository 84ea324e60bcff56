package core

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ApologyAnswer is the user-visible text returned when composition fails.
// Deliberately non-technical; the step trace stays in logs and diagnostics.
const ApologyAnswer = "Sorry, something went wrong while preparing your answer. Please try again in a moment."

// TurnRequest is one user turn entering the pipeline.
type TurnRequest struct {
	Messages  []Message
	UserID    string
	PersonaID string
}

// TurnResult is the pipeline outcome. Plan is always populated, even on
// failure, so the steps taken remain available for diagnostics.
type TurnResult struct {
	OK           bool
	Plan         *AgentPlan
	ErrorMessage string
}

// Agent sequences planner, tool dispatch, and composer for one user turn.
// Every turn is an independent, stateless execution; the only shared state
// lives behind the adapters' backing services.
type Agent struct {
	planner       *Planner
	composer      *Composer
	registry      *ToolRegistry
	personas      *PersonaSelector
	modelTimeout  time.Duration
	parallelSteps bool
	logger        *zap.Logger
}

func NewAgent(planner *Planner, composer *Composer, registry *ToolRegistry, personas *PersonaSelector, modelTimeout time.Duration, parallelSteps bool, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		planner:       planner,
		composer:      composer,
		registry:      registry,
		personas:      personas,
		modelTimeout:  modelTimeout,
		parallelSteps: parallelSteps,
		logger:        logger,
	}
}

// Run executes one turn: plan, dispatch every step to a terminal state, then
// compose. It always returns a non-empty answer; only a composer failure
// degrades the result to OK=false with the apology text. One plan→execute→
// compose round per turn — there is no re-planning loop.
func (agent *Agent) Run(ctx context.Context, req TurnRequest) TurnResult {
	persona := agent.personas.Resolve(req.PersonaID)
	plan := &AgentPlan{Persona: persona.ID, State: PlanReceived}

	// In-flight tool side effects are allowed to finish even if the caller
	// disconnects; the answer is discarded at the transport layer instead of
	// the pipeline being cancelled mid-call.
	runCtx := context.WithoutCancel(ctx)

	plan.State = PlanPlanning
	planCtx, cancelPlan := context.WithTimeout(runCtx, agent.modelTimeout)
	plan.Steps = agent.planner.Plan(planCtx, req.Messages)
	cancelPlan()

	plan.State = PlanExecuting
	agent.executeSteps(runCtx, plan.Steps, req.UserID)

	plan.State = PlanComposing
	composeCtx, cancelCompose := context.WithTimeout(runCtx, agent.modelTimeout)
	answer, err := agent.composer.Compose(composeCtx, req.Messages, persona, plan.Steps)
	cancelCompose()
	if err != nil {
		plan.State = PlanFailed
		agent.logger.Error("composer failed",
			zap.String("persona", persona.ID),
			zap.Int("steps", len(plan.Steps)),
			zap.Error(err))
		return TurnResult{OK: false, Plan: plan, ErrorMessage: ApologyAnswer}
	}

	plan.FinalAnswer = AppendImageEmbeds(answer, plan.Steps)
	plan.State = PlanDone
	return TurnResult{OK: true, Plan: plan}
}

// executeSteps drives every step to a terminal state. Sequential in planner
// order by default; with parallelSteps on, independent steps run concurrently
// and composition still waits for all of them.
func (agent *Agent) executeSteps(ctx context.Context, steps []*ToolStep, userID string) {
	if !agent.parallelSteps {
		for _, step := range steps {
			agent.executeStep(ctx, step, userID)
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, step := range steps {
		g.Go(func() error {
			agent.executeStep(gctx, step, userID)
			return nil
		})
	}
	_ = g.Wait()
}

func (agent *Agent) executeStep(ctx context.Context, step *ToolStep, userID string) {
	// The memory store is scoped to the authenticated user no matter what
	// the planner emitted.
	if step.ToolCall.Tool == ToolMemorySearch {
		if step.ToolCall.Arguments == nil {
			step.ToolCall.Arguments = map[string]any{}
		}
		step.ToolCall.Arguments["userId"] = userID
	}

	step.State = StepRunning
	step.Result = agent.registry.Dispatch(ctx, step.ToolCall)
	if step.Result.Failed() {
		step.State = StepFailed
	} else {
		step.State = StepSucceeded
	}
}
