// Package skills manages conversations delegated to external skill bots.
//
// # Conversation ID Factory
//
// When a host bot forwards a conversation to a skill, the skill must not see
// the host's real conversation id or service URL. The Factory mints an opaque
// id for each delegation and persists the mapping:
//
//	skillConvID, err := factory.CreateConversationID(ctx, ref, oauthScope)
//	ref, scope, err := factory.GetConversationReference(ctx, skillConvID)
//	err = factory.DeleteConversationReference(ctx, skillConvID)
//
// The mapping lives in a state.Store under its own key namespace, so restarts
// do not orphan in-flight skill conversations. Delete is idempotent; the skill
// may signal completion more than once.
//
// # Handoff Dialog
//
// HandoffDialog is a dialog.Handler that relays a conversation to a skill via
// a Caller and keeps the host's stack in Waiting until the skill sends an
// end-of-conversation activity. The mapping is created on begin and deleted
// from the dialog's end hook, which also covers cancellation.
package skills
