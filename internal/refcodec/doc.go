// Package refcodec serializes conversation references into signed, opaque
// tokens suitable for use as continuation identifiers.
//
// Tokens are HS256-signed JWTs. Decode rejects anything not produced by
// Encode with the same secret, so a tampered or foreign token can never
// resume a conversation. Failures surface as ErrDecode without detail about
// which check failed.
package refcodec
