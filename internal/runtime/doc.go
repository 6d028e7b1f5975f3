// Package runtime orchestrates turns: one incoming activity in, the dialog
// stack driven until it waits or empties, one conditional state write, and the
// accumulated replies out.
//
// Turns for the same conversation are serialized with a per-conversation lock,
// and an optional replay guard drops duplicate deliveries before they touch
// state. Network transport is deliberately out of scope; callers feed
// activities in and deliver the returned replies themselves.
package runtime
