// ABOUTME: Chat session identity: a conversation reference plus its continuation token
// ABOUTME: Tokens let a later invocation resume the same conversation against the same state db

package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/refcodec"
)

// consoleServiceURL addresses the local REPL transport.
const consoleServiceURL = "console://local"

// sessionReference resolves the conversation this chat session drives. An
// empty token starts a fresh conversation and mints its continuation token;
// a non-empty token is decoded back to the reference it was issued for, so
// the session picks up the persisted dialog stack of the earlier run.
func sessionReference(codec *refcodec.Codec, token string) (activity.ConversationReference, string, error) {
	if token != "" {
		ref, err := codec.Decode(token)
		if err != nil {
			return activity.ConversationReference{}, "", fmt.Errorf("resuming session: %w", err)
		}
		return ref, token, nil
	}

	ref := activity.ConversationReference{
		ConversationID: uuid.New().String(),
		ServiceURL:     consoleServiceURL,
		ChannelID:      "console",
		Bot:            "parley",
		User:           "you",
	}
	minted, err := codec.Encode(ref)
	if err != nil {
		return activity.ConversationReference{}, "", fmt.Errorf("minting session token: %w", err)
	}
	return ref, minted, nil
}
