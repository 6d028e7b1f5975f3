// ABOUTME: Context is the dialog stack engine: begin/continue/end/replace/cancel over one turn
// ABOUTME: Completion bubbles up the stack one frame at a time until a frame waits or the stack empties

package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleybot/parley/internal/activity"
)

// Context drives the dialog stack for a single turn. It holds the registry,
// the persisted stack, the incoming activity, and the responder that collects
// outgoing activities. It is not safe for concurrent use; the orchestrator
// guarantees one turn per conversation at a time.
type Context struct {
	dialogs   *Set
	state     *State
	activity  *activity.Activity
	responder *Responder
	logger    *slog.Logger
}

// NewContext creates a turn context over the given stack state.
func NewContext(dialogs *Set, st *State, act *activity.Activity, responder *Responder, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	if st.Stack == nil {
		st.Stack = []*Instance{}
	}
	return &Context{
		dialogs:   dialogs,
		state:     st,
		activity:  act,
		responder: responder,
		logger:    logger.With("component", "dialog"),
	}
}

// Activity returns the turn's incoming activity.
func (dc *Context) Activity() *activity.Activity {
	return dc.activity
}

// State returns the stack state being mutated this turn.
func (dc *Context) State() *State {
	return dc.state
}

// ActiveInstance returns the frame on top of the stack, or nil when no dialog
// is active.
func (dc *Context) ActiveInstance() *Instance {
	if len(dc.state.Stack) == 0 {
		return nil
	}
	return dc.state.Stack[len(dc.state.Stack)-1]
}

// SendActivity queues an outgoing activity.
func (dc *Context) SendActivity(a *activity.Activity) {
	dc.responder.Queue(a)
}

// SendText queues a text reply to the turn's incoming activity.
func (dc *Context) SendText(text string) {
	dc.responder.Queue(activity.NewReply(dc.activity, text))
}

// BeginDialog pushes a new instance of the named dialog onto the stack with
// empty state and invokes its begin logic. If the dialog completes during
// begin, completion bubbles to the parent frame as usual.
func (dc *Context) BeginDialog(ctx context.Context, dialogID string, options any) (TurnResult, error) {
	if dialogID == "" {
		return TurnResult{}, fmt.Errorf("begin dialog: dialog id is required")
	}
	h, err := dc.dialogs.Find(dialogID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("begin dialog: %w", err)
	}

	inst := &Instance{
		ID:    dialogID,
		State: make(map[string]any),
	}
	dc.state.Stack = append(dc.state.Stack, inst)
	dc.logger.Debug("dialog begun", "dialog_id", dialogID, "depth", len(dc.state.Stack))

	res, err := h.BeginDialog(ctx, dc, options)
	if err != nil {
		return TurnResult{}, fmt.Errorf("dialog %q begin: %w", dialogID, err)
	}
	return dc.bubble(ctx, inst, res)
}

// ContinueDialog delegates the turn to the active dialog. Continuing an empty
// stack is not an error: it returns StatusEmpty without mutating anything,
// signaling the caller to begin a root dialog.
func (dc *Context) ContinueDialog(ctx context.Context) (TurnResult, error) {
	inst := dc.ActiveInstance()
	if inst == nil {
		return TurnResult{Status: StatusEmpty}, nil
	}

	h, err := dc.dialogs.Find(inst.ID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("continue dialog: %w", err)
	}

	res, err := h.ContinueDialog(ctx, dc)
	if err != nil {
		return TurnResult{}, fmt.Errorf("dialog %q continue: %w", inst.ID, err)
	}
	return dc.bubble(ctx, inst, res)
}

// EndDialog pops the active dialog and resumes its parent with the given
// result. When the stack empties, the result is returned to the caller with
// StatusComplete.
func (dc *Context) EndDialog(ctx context.Context, result any) (TurnResult, error) {
	return dc.endActive(ctx, ReasonEnd, TurnResult{Status: StatusComplete, Result: result})
}

// CancelDialog pops the active dialog with a cancellation reason. The parent
// is still resumed so it can react (clean up, choose a fallback).
func (dc *Context) CancelDialog(ctx context.Context, result any) (TurnResult, error) {
	return dc.endActive(ctx, ReasonCancel, TurnResult{Status: StatusCancelled, Result: result})
}

// ReplaceDialog ends the active dialog and begins another in its place,
// keeping the rest of the stack. Useful for loops and redirects.
func (dc *Context) ReplaceDialog(ctx context.Context, dialogID string, options any) (TurnResult, error) {
	if inst := dc.pop(); inst != nil {
		if err := dc.endHook(ctx, inst, ReasonReplace); err != nil {
			return TurnResult{}, err
		}
	}
	return dc.BeginDialog(ctx, dialogID, options)
}

// CancelAllDialogs unwinds every frame top-down, invoking each frame's end
// hook with a cancellation reason, and leaves the stack empty. Unwinding is
// never interrupted mid-way: if a hook fails, the remaining frames are still
// popped and the first hook error is returned afterwards.
func (dc *Context) CancelAllDialogs(ctx context.Context) (TurnResult, error) {
	if len(dc.state.Stack) == 0 {
		return TurnResult{Status: StatusEmpty}, nil
	}

	var firstErr error
	for {
		inst := dc.pop()
		if inst == nil {
			break
		}
		if err := dc.endHook(ctx, inst, ReasonCancel); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return TurnResult{}, firstErr
	}
	dc.logger.Debug("all dialogs cancelled")
	return TurnResult{Status: StatusCancelled}, nil
}

// RepromptDialog asks the active dialog to re-issue its prompt. A no-op when
// the stack is empty.
func (dc *Context) RepromptDialog(ctx context.Context) error {
	inst := dc.ActiveInstance()
	if inst == nil {
		return nil
	}
	h, err := dc.dialogs.Find(inst.ID)
	if err != nil {
		return fmt.Errorf("reprompt dialog: %w", err)
	}
	if err := h.RepromptDialog(ctx, dc, inst); err != nil {
		return fmt.Errorf("dialog %q reprompt: %w", inst.ID, err)
	}
	return nil
}

// bubble propagates completion up the stack: while the frame that produced
// res is still on top and res says it finished, pop it and resume the parent
// with the result. Exactly one level is resumed per completed frame. A frame
// that finished with StatusCancelled resumes its parent with a cancel reason
// rather than being dropped silently.
func (dc *Context) bubble(ctx context.Context, inst *Instance, res TurnResult) (TurnResult, error) {
	for res.Status == StatusComplete || res.Status == StatusCancelled {
		if dc.ActiveInstance() != inst {
			// The frame already removed itself (via EndDialog inside the
			// handler); res reflects the bubbled outcome.
			break
		}

		reason := ReasonEnd
		if res.Status == StatusCancelled {
			reason = ReasonCancel
		}

		popped := dc.pop()
		if err := dc.endHook(ctx, popped, reason); err != nil {
			return TurnResult{}, err
		}

		parent := dc.ActiveInstance()
		if parent == nil {
			return res, nil
		}
		ph, err := dc.dialogs.Find(parent.ID)
		if err != nil {
			return TurnResult{}, fmt.Errorf("resume dialog: %w", err)
		}
		res, err = ph.ResumeDialog(ctx, dc, reason, res.Result)
		if err != nil {
			return TurnResult{}, fmt.Errorf("dialog %q resume: %w", parent.ID, err)
		}
		inst = parent
	}
	return res, nil
}

// endActive pops the active frame with the given reason and resumes the
// parent with final's result. When the stack empties, final is the outcome.
func (dc *Context) endActive(ctx context.Context, reason Reason, final TurnResult) (TurnResult, error) {
	inst := dc.pop()
	if inst == nil {
		return final, nil
	}
	if err := dc.endHook(ctx, inst, reason); err != nil {
		return TurnResult{}, err
	}

	parent := dc.ActiveInstance()
	if parent == nil {
		return final, nil
	}
	ph, err := dc.dialogs.Find(parent.ID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("resume dialog: %w", err)
	}
	res, err := ph.ResumeDialog(ctx, dc, reason, final.Result)
	if err != nil {
		return TurnResult{}, fmt.Errorf("dialog %q resume: %w", parent.ID, err)
	}
	return dc.bubble(ctx, parent, res)
}

// endHook invokes the popped frame's cleanup hook. A frame whose handler is
// no longer registered is logged and skipped so unwinding can proceed.
func (dc *Context) endHook(ctx context.Context, inst *Instance, reason Reason) error {
	h, err := dc.dialogs.Find(inst.ID)
	if err != nil {
		dc.logger.Warn("no handler for popped dialog", "dialog_id", inst.ID, "reason", string(reason))
		return nil
	}
	if err := h.EndDialog(ctx, dc, inst, reason); err != nil {
		return fmt.Errorf("dialog %q end: %w", inst.ID, err)
	}
	return nil
}

// pop removes and returns the top frame, or nil when the stack is empty.
func (dc *Context) pop() *Instance {
	n := len(dc.state.Stack)
	if n == 0 {
		return nil
	}
	inst := dc.state.Stack[n-1]
	dc.state.Stack = dc.state.Stack[:n-1]
	return inst
}
