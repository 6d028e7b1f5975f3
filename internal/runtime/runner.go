// ABOUTME: Runner is the turn orchestrator: load dialog state, drive the stack, persist, return replies
// ABOUTME: Pure state transformation plus activity accumulation; network I/O stays with the caller

package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/dialog"
	"github.com/parleybot/parley/internal/replay"
	"github.com/parleybot/parley/internal/state"
)

// Runner errors
var (
	// ErrMissingConversation means the activity carries no conversation id
	ErrMissingConversation = errors.New("activity has no conversation id")
)

// stateKeyPrefix namespaces dialog state in the store.
const stateKeyPrefix = "dialogstate/"

// Options tunes optional Runner behavior.
type Options struct {
	// ReplayTTL enables the duplicate-delivery guard when positive.
	ReplayTTL time.Duration

	// ReplayMaxEntries bounds the guard; defaults to 10000 when the guard
	// is enabled.
	ReplayMaxEntries int
}

// Runner processes one turn at a time per conversation: it loads the
// persisted dialog stack, continues it with the incoming activity (beginning
// the root dialog when nothing is active), writes the stack back with a
// version check, and returns the accumulated outgoing activities in FIFO
// order.
type Runner struct {
	dialogs *dialog.Set
	rootID  string
	store   state.Store
	locks   *conversationLocks
	guard   *replay.Guard
	logger  *slog.Logger
}

// NewRunner creates a runner driving the given root dialog.
func NewRunner(dialogs *dialog.Set, rootDialogID string, store state.Store, logger *slog.Logger, opts Options) (*Runner, error) {
	if rootDialogID == "" {
		return nil, fmt.Errorf("root dialog id is required")
	}
	if _, err := dialogs.Find(rootDialogID); err != nil {
		return nil, fmt.Errorf("root dialog: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var guard *replay.Guard
	if opts.ReplayTTL > 0 {
		maxEntries := opts.ReplayMaxEntries
		if maxEntries <= 0 {
			maxEntries = 10000
		}
		guard = replay.NewGuard(opts.ReplayTTL, maxEntries)
	}

	return &Runner{
		dialogs: dialogs,
		rootID:  rootDialogID,
		store:   store,
		locks:   newConversationLocks(),
		guard:   guard,
		logger:  logger.With("component", "runtime"),
	}, nil
}

// ProcessTurn drives the dialog stack to completion for one incoming
// activity. A state.ErrConflict from the final write surfaces to the caller,
// which should reload and retry; all other errors are not retryable. A
// duplicate delivery is dropped silently: nil replies, nil result, nil error.
func (r *Runner) ProcessTurn(ctx context.Context, act *activity.Activity) ([]*activity.Activity, *dialog.TurnResult, error) {
	if act == nil || act.ConversationID == "" {
		return nil, nil, ErrMissingConversation
	}

	// A dropped duplicate produces no replies and no result: the stack was
	// not touched, so there is no status to report.
	if r.guard != nil && act.ID != "" && r.guard.Seen(act.ConversationID, act.ID) {
		r.logger.Debug("duplicate activity dropped",
			"conversation_id", act.ConversationID,
			"activity_id", act.ID)
		return nil, nil, nil
	}

	release := r.locks.acquire(act.ConversationID)
	defer release()

	st, version, err := r.loadState(ctx, act.ConversationID)
	if err != nil {
		return nil, nil, err
	}

	responder := dialog.NewResponder()
	dc := dialog.NewContext(r.dialogs, st, act, responder, r.logger)

	res, err := dc.ContinueDialog(ctx)
	if err != nil {
		return nil, nil, err
	}
	if res.Status == dialog.StatusEmpty {
		res, err = dc.BeginDialog(ctx, r.rootID, nil)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := r.saveState(ctx, act.ConversationID, st, version); err != nil {
		return nil, nil, err
	}

	r.logger.Debug("turn processed",
		"conversation_id", act.ConversationID,
		"status", string(res.Status),
		"depth", st.Depth())
	return responder.Drain(), &res, nil
}

// Close releases the replay guard's background goroutine, if any.
func (r *Runner) Close() {
	if r.guard != nil {
		r.guard.Close()
	}
}

// loadState reads and decodes the conversation's dialog stack. A missing key
// yields a fresh empty stack with no version.
func (r *Runner) loadState(ctx context.Context, conversationID string) (*dialog.State, string, error) {
	data, version, err := r.store.Get(ctx, stateKeyPrefix+conversationID)
	if errors.Is(err, state.ErrNotFound) {
		return &dialog.State{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading dialog state: %w", err)
	}

	var st dialog.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, "", fmt.Errorf("decoding dialog state: %w", err)
	}
	return &st, version, nil
}

// saveState writes the stack back once per turn, conditional on the version
// read at turn start.
func (r *Runner) saveState(ctx context.Context, conversationID string, st *dialog.State, version string) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding dialog state: %w", err)
	}
	if _, err := r.store.Put(ctx, stateKeyPrefix+conversationID, data, version); err != nil {
		return fmt.Errorf("saving dialog state: %w", err)
	}
	return nil
}
