package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ToolRegistry maps tool identifiers to adapters and dispatches calls,
// normalizing every outcome into a ToolResult. It holds no cross-call state;
// each dispatch is independent.
type ToolRegistry struct {
	adapters map[ToolName]ToolAdapter
	timeout  time.Duration
	logger   *zap.Logger
}

func NewToolRegistry(timeout time.Duration, logger *zap.Logger) *ToolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolRegistry{
		adapters: make(map[ToolName]ToolAdapter),
		timeout:  timeout,
		logger:   logger,
	}
}

func (tr *ToolRegistry) Register(adapter ToolAdapter) {
	tr.adapters[adapter.Name()] = adapter
}

func (tr *ToolRegistry) Get(name ToolName) ToolAdapter {
	return tr.adapters[name]
}

// Descriptors lists the registered tools in stable name order, for the
// planner prompt.
func (tr *ToolRegistry) Descriptors() []ToolDescriptor {
	var list []ToolDescriptor
	for _, adapter := range tr.adapters {
		list = append(list, adapter.Describe())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Dispatch invokes the adapter registered for the call's tool under a bounded
// timeout. An unregistered tool yields a non-fatal stub payload so the
// pipeline keeps going; adapter errors, panics, and timeouts all come back as
// ToolResult.Error. Dispatch never returns nil and never propagates a fault
// to the caller.
func (tr *ToolRegistry) Dispatch(ctx context.Context, call ToolCall) *ToolResult {
	start := time.Now()

	adapter := tr.adapters[call.Tool]
	if adapter == nil {
		tr.logger.Warn("tool not registered", zap.String("tool", string(call.Tool)))
		return &ToolResult{
			Payload:    map[string]any{PayloadKeyInfo: PayloadNotImplemented},
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, tr.timeout)
	defer cancel()

	payload, err := tr.invoke(callCtx, adapter, call.Arguments)
	result := &ToolResult{DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		// adapters that return ctx.Err() themselves get the same shape as
		// ones reaped by the select below
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("tool %s timed out: %w", call.Tool, context.DeadlineExceeded)
		}
		result.Error = err.Error()
		tr.logger.Warn("tool invocation failed",
			zap.String("tool", string(call.Tool)),
			zap.Int64("durationMs", result.DurationMs),
			zap.Error(err))
		return result
	}
	result.Payload = payload
	if result.Payload == nil {
		result.Payload = map[string]any{}
	}
	tr.logger.Info("tool invocation succeeded",
		zap.String("tool", string(call.Tool)),
		zap.Int64("durationMs", result.DurationMs))
	return result
}

type invokeOutcome struct {
	payload map[string]any
	err     error
}

// invoke isolates the adapter call so a panicking or hung adapter degrades
// into an error result instead of tearing down the request.
func (tr *ToolRegistry) invoke(ctx context.Context, adapter ToolAdapter, args map[string]any) (map[string]any, error) {
	out := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- invokeOutcome{err: fmt.Errorf("tool %s panicked: %v", adapter.Name(), r)}
			}
		}()
		payload, err := adapter.Invoke(ctx, args)
		out <- invokeOutcome{payload: payload, err: err}
	}()

	select {
	case o := <-out:
		return o.payload, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("tool %s timed out: %w", adapter.Name(), ctx.Err())
	}
}
