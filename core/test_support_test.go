package core

import (
	"context"
	"time"
)

// scriptedLLM replays canned outputs in call order and records what each
// call was given.
type scriptedLLM struct {
	outputs   []string
	errs      []error
	calls     int
	systems   []string
	histories [][]Message
}

func (s *scriptedLLM) Generate(ctx context.Context, systemContext string, history []Message) (LLMOutput, error) {
	i := s.calls
	s.calls++
	s.systems = append(s.systems, systemContext)
	s.histories = append(s.histories, history)

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return LLMOutput{}, err
	}
	var text string
	if i < len(s.outputs) {
		text = s.outputs[i]
	}
	return LLMOutput{Text: text}, nil
}

// stubAdapter is a registry test double with a programmable outcome.
type stubAdapter struct {
	name     ToolName
	payload  map[string]any
	err      error
	panicMsg string
	delay    time.Duration
	calls    int
	lastArgs map[string]any
}

func (s *stubAdapter) Name() ToolName { return s.name }

func (s *stubAdapter) Describe() ToolDescriptor {
	return ToolDescriptor{Name: s.name, Description: "stub"}
}

func (s *stubAdapter) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	s.calls++
	s.lastArgs = args
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}
