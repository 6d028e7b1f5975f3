// ABOUTME: Core dialog types: turn results, stack frames, and the Handler interface
// ABOUTME: Handlers are the polymorphic dialog kinds; the engine only orchestrates the stack

package dialog

import (
	"context"
	"errors"
)

// TurnStatus describes the state of the dialog stack after an operation.
type TurnStatus string

const (
	// StatusEmpty means no dialog was active; the caller should begin one.
	StatusEmpty TurnStatus = "empty"

	// StatusWaiting means the active dialog expects more input next turn.
	// This covers both user input and external async callbacks; the two are
	// deliberately not distinguished.
	StatusWaiting TurnStatus = "waiting"

	// StatusComplete means the dialog ended normally.
	StatusComplete TurnStatus = "complete"

	// StatusCancelled means the dialog was cancelled before completing.
	StatusCancelled TurnStatus = "cancelled"
)

// TurnResult is produced by every stack operation.
type TurnResult struct {
	Status TurnStatus
	Result any
}

// Reason tells a handler why it is being resumed or ended.
type Reason string

const (
	ReasonBegin   Reason = "begin"
	ReasonEnd     Reason = "end"
	ReasonCancel  Reason = "cancel"
	ReasonReplace Reason = "replace"
)

// Instance is one frame on the dialog stack: the handler's id plus opaque
// per-frame state. The engine never inspects State; each dialog kind owns
// its own schema.
type Instance struct {
	ID    string         `json:"id"`
	State map[string]any `json:"state"`
}

// State is the persisted dialog stack for one conversation. An empty stack
// means no dialog is active.
type State struct {
	Stack []*Instance `json:"stack"`
}

// Depth returns the number of frames on the stack.
func (s *State) Depth() int {
	return len(s.Stack)
}

// ErrDialogNotFound is returned when a dialog id has no registered handler.
var ErrDialogNotFound = errors.New("dialog not found")

// Handler is implemented by each dialog kind. Handlers receive the Context
// to read the incoming activity, queue outgoing activities, and drive the
// stack (begin children, end themselves).
type Handler interface {
	// BeginDialog starts a new instance of the dialog. Options are whatever
	// the beginning caller passed.
	BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error)

	// ContinueDialog processes the turn's activity while this dialog is on
	// top of the stack.
	ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error)

	// ResumeDialog is called when a child dialog finished and control
	// returns to this dialog, carrying the child's result.
	ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error)

	// EndDialog is the cleanup hook invoked when the instance is popped,
	// whether it completed, was cancelled, or was replaced.
	EndDialog(ctx context.Context, dc *Context, instance *Instance, reason Reason) error

	// RepromptDialog asks the dialog to re-issue its current prompt.
	RepromptDialog(ctx context.Context, dc *Context, instance *Instance) error
}

// BaseHandler provides default behavior for the optional Handler methods.
// Dialog kinds embed it and override what they need.
type BaseHandler struct{}

// ContinueDialog ends the dialog by default: a dialog that does not override
// this is single-turn.
func (BaseHandler) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	return dc.EndDialog(ctx, nil)
}

// ResumeDialog ends the dialog with the child's result by default, so results
// cascade up through dialogs that don't override it.
func (BaseHandler) ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error) {
	return dc.EndDialog(ctx, result)
}

// EndDialog does nothing by default.
func (BaseHandler) EndDialog(ctx context.Context, dc *Context, instance *Instance, reason Reason) error {
	return nil
}

// RepromptDialog does nothing by default.
func (BaseHandler) RepromptDialog(ctx context.Context, dc *Context, instance *Instance) error {
	return nil
}
