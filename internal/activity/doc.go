// Package activity defines the wire-level unit of conversation: incoming user
// messages, outgoing bot replies, and control events, plus the
// ConversationReference needed to resume a conversation later.
package activity
