// Package dialog implements the persisted dialog stack that drives a bot's
// conversation logic.
//
// # Model
//
// A conversation's dialog state is a stack of frames (Instance values), each
// naming a dialog kind by id and carrying opaque per-frame state. The stack
// behaves like a call stack: beginning a dialog pushes a frame, ending one
// pops it and resumes the parent with the result.
//
// Dialog kinds are Handlers registered in a Set. The engine (Context) never
// inspects frame contents; it only orchestrates the stack and delegates to
// whichever handler the stored id resolves to.
//
// # Turn flow
//
//	dc := dialog.NewContext(set, state, incoming, responder, logger)
//	res, err := dc.ContinueDialog(ctx)
//	if res.Status == dialog.StatusEmpty {
//	    res, err = dc.BeginDialog(ctx, rootID, nil)
//	}
//
// Continuing an empty stack returns StatusEmpty without mutation. When a
// frame completes, the engine pops it and resumes the new top frame with the
// result, one level per completed frame, until a frame waits or the stack
// empties. A frame that finishes cancelled still resumes its parent, with a
// cancel reason, so the parent can react.
//
// Handlers queue outgoing activities on the Responder; no I/O happens inside
// the engine, which keeps a turn fully unit-testable.
//
// # Built-in kinds
//
// Waterfall runs an ordered list of steps, advancing one step per turn or
// child-dialog result. TextPrompt asks for text and retries until its
// validator accepts the input.
package dialog
