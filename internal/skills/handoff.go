// ABOUTME: HandoffDialog delegates a conversation to a skill through the id factory
// ABOUTME: The skill sees only the generated conversation id; cleanup happens when the frame pops

package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/dialog"
)

// conversationIDKey is the frame state key holding the skill conversation id.
const conversationIDKey = "skill_conversation_id"

// Caller delivers activities to a skill and returns whatever the skill sent
// back for the turn. Implementations do the actual network I/O; the dialog
// core never does.
type Caller interface {
	PostActivity(ctx context.Context, skillConversationID string, act *activity.Activity) ([]*activity.Activity, error)
}

// HandoffOptions configures a handoff when it begins.
type HandoffOptions struct {
	// OAuthScope of the calling bot, stored with the conversation mapping.
	OAuthScope string
}

// HandoffDialog is a dialog kind that routes every turn to a skill until the
// skill sends endOfConversation. The skill conversation id lives in the frame
// state; the mapping is deleted whenever the frame pops, including on cancel.
type HandoffDialog struct {
	dialog.BaseHandler
	factory *Factory
	caller  Caller
	logger  *slog.Logger
}

// NewHandoffDialog creates a handoff dialog over the given factory and caller.
func NewHandoffDialog(factory *Factory, caller Caller, logger *slog.Logger) *HandoffDialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandoffDialog{
		factory: factory,
		caller:  caller,
		logger:  logger.With("component", "skills"),
	}
}

// BeginDialog creates the skill conversation mapping and forwards the turn's
// activity to the skill.
func (d *HandoffDialog) BeginDialog(ctx context.Context, dc *dialog.Context, options any) (dialog.TurnResult, error) {
	var opts HandoffOptions
	switch v := options.(type) {
	case nil:
	case HandoffOptions:
		opts = v
	case *HandoffOptions:
		opts = *v
	default:
		return dialog.TurnResult{}, fmt.Errorf("skill handoff requires HandoffOptions, got %T", options)
	}

	id, err := d.factory.CreateConversationID(ctx, dc.Activity().Reference(), opts.OAuthScope)
	if err != nil {
		return dialog.TurnResult{}, fmt.Errorf("creating skill conversation: %w", err)
	}
	dc.ActiveInstance().State[conversationIDKey] = id

	return d.relay(ctx, dc, id)
}

// ContinueDialog forwards the turn's activity to the skill.
func (d *HandoffDialog) ContinueDialog(ctx context.Context, dc *dialog.Context) (dialog.TurnResult, error) {
	id, _ := dc.ActiveInstance().State[conversationIDKey].(string)
	if id == "" {
		return dialog.TurnResult{}, fmt.Errorf("skill handoff frame is missing its conversation id")
	}
	return d.relay(ctx, dc, id)
}

// EndDialog deletes the conversation mapping when the frame pops, whatever
// the reason. Deletion is idempotent.
func (d *HandoffDialog) EndDialog(ctx context.Context, dc *dialog.Context, instance *dialog.Instance, reason dialog.Reason) error {
	id, _ := instance.State[conversationIDKey].(string)
	if id == "" {
		return nil
	}
	if err := d.factory.DeleteConversationReference(ctx, id); err != nil {
		return fmt.Errorf("cleaning up skill conversation: %w", err)
	}
	return nil
}

// relay posts the incoming activity to the skill and queues its replies.
// An endOfConversation reply ends the handoff with the skill's result.
func (d *HandoffDialog) relay(ctx context.Context, dc *dialog.Context, skillConversationID string) (dialog.TurnResult, error) {
	replies, err := d.caller.PostActivity(ctx, skillConversationID, dc.Activity())
	if err != nil {
		return dialog.TurnResult{}, fmt.Errorf("posting to skill: %w", err)
	}

	for _, reply := range replies {
		if reply.Type == activity.TypeEndOfConversation {
			d.logger.Debug("skill conversation ended",
				"skill_conversation_id", skillConversationID)
			return dc.EndDialog(ctx, reply.Value)
		}
		dc.SendActivity(reply)
	}
	return dialog.TurnResult{Status: dialog.StatusWaiting}, nil
}
