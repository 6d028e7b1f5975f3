// ABOUTME: Tests for chat session identity resolution
// ABOUTME: Covers fresh-session token minting, token resume, and rejected tokens

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/internal/refcodec"
)

func TestSessionReference_FreshSessionMintsResumableToken(t *testing.T) {
	codec, err := refcodec.New([]byte("session-secret"))
	require.NoError(t, err)

	ref, token, err := sessionReference(codec, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, ref.ConversationID)
	assert.Equal(t, consoleServiceURL, ref.ServiceURL)

	// The minted token resumes the same conversation.
	resumed, resumedToken, err := sessionReference(codec, token)
	require.NoError(t, err)
	assert.Equal(t, ref, resumed)
	assert.Equal(t, token, resumedToken)
}

func TestSessionReference_FreshSessionsAreDistinct(t *testing.T) {
	codec, err := refcodec.New([]byte("session-secret"))
	require.NoError(t, err)

	a, _, err := sessionReference(codec, "")
	require.NoError(t, err)
	b, _, err := sessionReference(codec, "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ConversationID, b.ConversationID)
}

func TestSessionReference_RejectsForeignToken(t *testing.T) {
	codec, err := refcodec.New([]byte("session-secret"))
	require.NoError(t, err)
	other, err := refcodec.New([]byte("different-secret"))
	require.NoError(t, err)

	_, token, err := sessionReference(other, "")
	require.NoError(t, err)

	_, _, err = sessionReference(codec, token)
	require.Error(t, err)
	assert.ErrorIs(t, err, refcodec.ErrDecode)
}

func TestSessionReference_RejectsGarbageToken(t *testing.T) {
	codec, err := refcodec.New([]byte("session-secret"))
	require.NoError(t, err)

	_, _, err = sessionReference(codec, "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, refcodec.ErrDecode)
}
