// ABOUTME: Responder is the append-only activity accumulator handed to dialog handlers
// ABOUTME: Handlers queue outgoing activities here instead of performing I/O themselves

package dialog

import (
	"github.com/parleybot/parley/internal/activity"
)

// Responder collects the activities a turn produces, in the order they were
// queued. The orchestrator drains it after the turn; downstream channels
// render activities sequentially, so FIFO order matters.
type Responder struct {
	queued []*activity.Activity
}

// NewResponder creates an empty responder.
func NewResponder() *Responder {
	return &Responder{}
}

// Queue appends an activity to the outgoing list.
func (r *Responder) Queue(a *activity.Activity) {
	r.queued = append(r.queued, a)
}

// Drain returns the queued activities in FIFO order and resets the responder.
func (r *Responder) Drain() []*activity.Activity {
	out := r.queued
	r.queued = nil
	return out
}
