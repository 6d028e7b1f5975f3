// ABOUTME: Waterfall dialog: an ordered sequence of steps, one resumed per turn or child result
// ABOUTME: Per-frame state tracks the step index so the sequence survives persistence between turns

package dialog

import (
	"context"
	"encoding/json"
	"fmt"
)

// Frame state keys used by Waterfall.
const (
	waterfallStepKey    = "step"
	waterfallOptionsKey = "options"
	waterfallValuesKey  = "values"
)

// WaterfallStep is one step of a waterfall. Steps return the result of a
// stack operation: typically step.Waiting() after prompting, step.Begin to
// push a child dialog, step.Next to fall through to the following step, or
// step.End to finish the waterfall.
type WaterfallStep func(ctx context.Context, step *WaterfallStepContext) (TurnResult, error)

// Waterfall runs its steps in order. Each completed child dialog or incoming
// turn advances to the next step; running off the end ends the dialog with
// the last result.
type Waterfall struct {
	BaseHandler
	steps []WaterfallStep
}

// NewWaterfall creates a waterfall from the given steps.
func NewWaterfall(steps ...WaterfallStep) *Waterfall {
	return &Waterfall{steps: steps}
}

// WaterfallStepContext is handed to each step.
type WaterfallStepContext struct {
	dc        *Context
	waterfall *Waterfall
	index     int

	// Options is whatever was passed when the waterfall began. It lives in
	// the frame state, so once the turn boundary is crossed it has been
	// through a JSON round-trip: a typed struct passed at begin comes back
	// as a map[string]any on later turns. Keep cross-turn options to
	// JSON-plain values (maps, strings, numbers), or consume them in the
	// first step.
	Options any

	// Result carries the previous step's value: the child dialog's result
	// when resuming, or nil on the first step.
	Result any

	// Values is the waterfall's cross-step scratch space, persisted in the
	// frame state between turns.
	Values map[string]any
}

// Context returns the underlying dialog context.
func (s *WaterfallStepContext) Context() *Context {
	return s.dc
}

// Waiting reports that the waterfall expects more input next turn.
func (s *WaterfallStepContext) Waiting() (TurnResult, error) {
	return TurnResult{Status: StatusWaiting}, nil
}

// Begin pushes a child dialog; the waterfall resumes at the next step with
// the child's result.
func (s *WaterfallStepContext) Begin(ctx context.Context, dialogID string, options any) (TurnResult, error) {
	return s.dc.BeginDialog(ctx, dialogID, options)
}

// Next runs the following step within the same turn, passing it result.
func (s *WaterfallStepContext) Next(ctx context.Context, result any) (TurnResult, error) {
	return s.waterfall.runStep(ctx, s.dc, s.index+1, result)
}

// End finishes the waterfall with the given result.
func (s *WaterfallStepContext) End(ctx context.Context, result any) (TurnResult, error) {
	return s.dc.EndDialog(ctx, result)
}

// BeginDialog starts the waterfall at step zero.
func (w *Waterfall) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	inst := dc.ActiveInstance()
	inst.State[waterfallStepKey] = 0
	if options != nil {
		inst.State[waterfallOptionsKey] = options
	}
	inst.State[waterfallValuesKey] = map[string]any{}
	return w.runStep(ctx, dc, 0, nil)
}

// ContinueDialog advances to the next step with the turn's activity as the
// step result.
func (w *Waterfall) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	inst := dc.ActiveInstance()
	current, err := stateInt(inst.State, waterfallStepKey)
	if err != nil {
		return TurnResult{}, fmt.Errorf("waterfall frame state: %w", err)
	}
	return w.runStep(ctx, dc, current+1, dc.Activity())
}

// ResumeDialog advances to the next step with the child dialog's result.
func (w *Waterfall) ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error) {
	inst := dc.ActiveInstance()
	current, err := stateInt(inst.State, waterfallStepKey)
	if err != nil {
		return TurnResult{}, fmt.Errorf("waterfall frame state: %w", err)
	}
	return w.runStep(ctx, dc, current+1, result)
}

// runStep executes step index, or ends the waterfall when the steps are
// exhausted.
func (w *Waterfall) runStep(ctx context.Context, dc *Context, index int, result any) (TurnResult, error) {
	if index >= len(w.steps) {
		return dc.EndDialog(ctx, result)
	}

	inst := dc.ActiveInstance()
	inst.State[waterfallStepKey] = index

	values, _ := inst.State[waterfallValuesKey].(map[string]any)
	if values == nil {
		values = map[string]any{}
		inst.State[waterfallValuesKey] = values
	}

	step := &WaterfallStepContext{
		dc:        dc,
		waterfall: w,
		index:     index,
		Options:   inst.State[waterfallOptionsKey],
		Result:    result,
		Values:    values,
	}
	return w.steps[index](ctx, step)
}

// stateInt reads an integer from frame state, tolerating the numeric types
// a JSON round-trip produces.
func stateInt(m map[string]any, key string) (int, error) {
	switch v := m[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("key %q: %w", key, err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("key %q: unexpected type %T", key, v)
	}
}
