// ABOUTME: Activity and ConversationReference value types for the conversation core
// ABOUTME: Activities are single inbound/outbound messages; references address a conversation durably

package activity

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Type categorizes an activity.
type Type string

const (
	TypeMessage           Type = "message"
	TypeEvent             Type = "event"
	TypeEndOfConversation Type = "endOfConversation"
)

// Activity is a single inbound or outbound conversational message or event.
type Activity struct {
	ID             string    `json:"id"`
	Type           Type      `json:"type"`
	ConversationID string    `json:"conversation_id"`
	ChannelID      string    `json:"channel_id,omitempty"`
	ServiceURL     string    `json:"service_url,omitempty"`
	From           string    `json:"from,omitempty"`
	Recipient      string    `json:"recipient,omitempty"`
	Text           string    `json:"text,omitempty"`
	Value          any       `json:"value,omitempty"`
	ReplyToID      string    `json:"reply_to_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessage creates a message activity with a generated ID and timestamp.
func NewMessage(conversationID, from, text string) *Activity {
	return &Activity{
		ID:             uuid.New().String(),
		Type:           TypeMessage,
		ConversationID: conversationID,
		From:           from,
		Text:           text,
		Timestamp:      time.Now().UTC(),
	}
}

// NewEvent creates an event activity carrying an opaque value.
func NewEvent(conversationID, from string, value any) *Activity {
	return &Activity{
		ID:             uuid.New().String(),
		Type:           TypeEvent,
		ConversationID: conversationID,
		From:           from,
		Value:          value,
		Timestamp:      time.Now().UTC(),
	}
}

// NewReply creates a message activity addressed back to the sender of to.
// Conversation, channel, and service URL are carried over; from/recipient
// are swapped.
func NewReply(to *Activity, text string) *Activity {
	return &Activity{
		ID:             uuid.New().String(),
		Type:           TypeMessage,
		ConversationID: to.ConversationID,
		ChannelID:      to.ChannelID,
		ServiceURL:     to.ServiceURL,
		From:           to.Recipient,
		Recipient:      to.From,
		Text:           text,
		ReplyToID:      to.ID,
		Timestamp:      time.Now().UTC(),
	}
}

// Reference extracts a durable ConversationReference from an inbound activity.
// From is treated as the user, Recipient as the bot.
func (a *Activity) Reference() ConversationReference {
	return ConversationReference{
		ConversationID: a.ConversationID,
		ServiceURL:     a.ServiceURL,
		ChannelID:      a.ChannelID,
		Bot:            a.Recipient,
		User:           a.From,
	}
}

// ApplyReference addresses an outbound activity using a stored reference,
// so a conversation can be resumed out-of-band (proactive messaging).
func ApplyReference(a *Activity, ref ConversationReference) {
	a.ConversationID = ref.ConversationID
	a.ServiceURL = ref.ServiceURL
	a.ChannelID = ref.ChannelID
	a.From = ref.Bot
	a.Recipient = ref.User
}

// Reference validation errors
var (
	ErrMissingConversationID = errors.New("conversation id is required")
	ErrInvalidServiceURL     = errors.New("service url must be an absolute URL")
)

// ConversationReference is an immutable value that durably addresses a
// conversation: where it lives (service URL, channel) and who is in it.
type ConversationReference struct {
	ConversationID string `json:"conversation_id"`
	ServiceURL     string `json:"service_url"`
	ChannelID      string `json:"channel_id,omitempty"`
	Bot            string `json:"bot,omitempty"`
	User           string `json:"user,omitempty"`
}

// Validate checks the reference invariants: a non-empty conversation ID and
// an absolute service URL.
func (r ConversationReference) Validate() error {
	if r.ConversationID == "" {
		return ErrMissingConversationID
	}
	u, err := url.Parse(r.ServiceURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServiceURL, err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("%w: %q", ErrInvalidServiceURL, r.ServiceURL)
	}
	return nil
}
