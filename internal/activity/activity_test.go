// ABOUTME: Tests for activity construction and conversation references
// ABOUTME: Covers reply addressing, reference extraction, and validation invariants

package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReply_SwapsAddressing(t *testing.T) {
	in := NewMessage("conv-1", "user", "hello")
	in.ChannelID = "slack"
	in.ServiceURL = "https://host/svc"
	in.Recipient = "bot"

	reply := NewReply(in, "hi there")

	assert.Equal(t, "conv-1", reply.ConversationID)
	assert.Equal(t, "slack", reply.ChannelID)
	assert.Equal(t, "https://host/svc", reply.ServiceURL)
	assert.Equal(t, "bot", reply.From)
	assert.Equal(t, "user", reply.Recipient)
	assert.Equal(t, in.ID, reply.ReplyToID)
	assert.Equal(t, TypeMessage, reply.Type)
	assert.NotEqual(t, in.ID, reply.ID)
}

func TestReference_FromInboundActivity(t *testing.T) {
	in := NewMessage("conv-1", "user", "hello")
	in.ChannelID = "slack"
	in.ServiceURL = "https://host/svc"
	in.Recipient = "bot"

	ref := in.Reference()
	assert.Equal(t, "conv-1", ref.ConversationID)
	assert.Equal(t, "https://host/svc", ref.ServiceURL)
	assert.Equal(t, "slack", ref.ChannelID)
	assert.Equal(t, "bot", ref.Bot)
	assert.Equal(t, "user", ref.User)
}

func TestApplyReference_AddressesOutbound(t *testing.T) {
	ref := ConversationReference{
		ConversationID: "conv-1",
		ServiceURL:     "https://host/svc",
		ChannelID:      "slack",
		Bot:            "bot",
		User:           "user",
	}

	out := NewMessage("", "", "proactive ping")
	ApplyReference(out, ref)

	assert.Equal(t, "conv-1", out.ConversationID)
	assert.Equal(t, "https://host/svc", out.ServiceURL)
	assert.Equal(t, "bot", out.From)
	assert.Equal(t, "user", out.Recipient)
}

func TestConversationReference_Validate(t *testing.T) {
	valid := ConversationReference{
		ConversationID: "conv-1",
		ServiceURL:     "https://host/svc",
	}
	require.NoError(t, valid.Validate())

	missing := ConversationReference{ServiceURL: "https://host/svc"}
	assert.ErrorIs(t, missing.Validate(), ErrMissingConversationID)

	relative := ConversationReference{ConversationID: "conv-1", ServiceURL: "host/svc"}
	assert.ErrorIs(t, relative.Validate(), ErrInvalidServiceURL)

	empty := ConversationReference{ConversationID: "conv-1"}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidServiceURL)
}
