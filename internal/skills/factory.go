// ABOUTME: Skill conversation id factory mapping opaque ids to host conversation references
// ABOUTME: A skill only ever sees the generated id, never the host's real conversation identity

package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/state"
)

// Factory errors
var (
	// ErrInvalidArgument means the caller supplied an unusable reference or scope
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means the skill conversation id was never created, or was deleted
	ErrNotFound = errors.New("skill conversation not found")
)

const keyPrefix = "skillconv/"

// record is the persisted mapping for one skill conversation id.
type record struct {
	Reference  activity.ConversationReference `json:"reference"`
	OAuthScope string                         `json:"oauth_scope,omitempty"`
}

// Factory generates opaque skill conversation ids and resolves them back to
// the host's conversation reference. The indirection is a security boundary:
// a skill addresses the host only through the id, and must come back through
// the factory to reach the real conversation.
type Factory struct {
	store  state.Store
	logger *slog.Logger
}

// NewFactory creates a factory backed by the given store.
func NewFactory(store state.Store, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		store:  store,
		logger: logger.With("component", "skills"),
	}
}

// CreateConversationID generates a fresh id for the (host conversation, skill)
// pairing described by ref and oauthScope, persists the mapping, and returns
// the id. The reference must carry a conversation id and an absolute service
// URL.
func (f *Factory) CreateConversationID(ctx context.Context, ref activity.ConversationReference, oauthScope string) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	id := uuid.New().String()
	data, err := json.Marshal(&record{Reference: ref, OAuthScope: oauthScope})
	if err != nil {
		return "", fmt.Errorf("marshaling conversation record: %w", err)
	}

	// Each id is write-once; no version check needed.
	if _, err := f.store.Put(ctx, keyPrefix+id, data, ""); err != nil {
		return "", fmt.Errorf("storing conversation record: %w", err)
	}

	f.logger.Debug("skill conversation created",
		"skill_conversation_id", id,
		"host_conversation_id", ref.ConversationID)
	return id, nil
}

// GetConversationReference resolves a skill conversation id back to the host
// reference and OAuth scope supplied at creation. Returns ErrNotFound for
// unknown or deleted ids.
func (f *Factory) GetConversationReference(ctx context.Context, skillConversationID string) (activity.ConversationReference, string, error) {
	var rec record

	data, _, err := f.store.Get(ctx, keyPrefix+skillConversationID)
	if errors.Is(err, state.ErrNotFound) {
		return rec.Reference, "", fmt.Errorf("%w: %q", ErrNotFound, skillConversationID)
	}
	if err != nil {
		return rec.Reference, "", fmt.Errorf("loading conversation record: %w", err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec.Reference, "", fmt.Errorf("unmarshaling conversation record: %w", err)
	}
	return rec.Reference, rec.OAuthScope, nil
}

// DeleteConversationReference removes the mapping for a skill conversation id.
// Deleting an unknown id is not an error.
func (f *Factory) DeleteConversationReference(ctx context.Context, skillConversationID string) error {
	if err := f.store.Delete(ctx, keyPrefix+skillConversationID); err != nil {
		return fmt.Errorf("deleting conversation record: %w", err)
	}
	f.logger.Debug("skill conversation deleted", "skill_conversation_id", skillConversationID)
	return nil
}
