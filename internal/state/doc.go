// Package state provides versioned key-value storage for conversation state.
//
// # Store Interface
//
// All persistence goes through the Store interface:
//
//   - Get: returns the value and an opaque version token
//   - Put: writes conditionally on the version read earlier; a stale version
//     yields ErrConflict
//   - Delete: idempotent removal
//
// Versions are opaque strings generated by the store. Callers never interpret
// them; they only pass back what Get returned. An empty expected version means
// an unconditional write; a non-empty version against a missing key conflicts.
//
// # Implementations
//
//   - MemoryStore: mutex-guarded map, for tests and ephemeral deployments
//   - SQLiteStore: durable storage using modernc.org/sqlite with WAL mode
//
// Use NewMemoryStore() in unit tests and NewSQLiteStore(path, logger) in
// production. SQLiteStore performs the read-check-write inside a transaction
// so concurrent writers cannot both succeed against the same version.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: key does not exist
//   - ErrConflict: expected version is stale
//
// All methods accept context.Context for cancellation support.
package state
