// Package store provides SQLite-backed durable storage for the
// sentence dictionary.
//
// The store maps sentence content to stable integer ids:
//   - Sentences: (id, content_hash, raw_bytes, occurrences) rows
//   - Meta: dictionary identity and recorded configuration
//
// # Critical Patterns
//
// Verify-always collision handling
//   - content_hash is a bucket key, never an identity
//   - Every access byte-compares raw_bytes before trusting a match
//   - Two distinct contents sharing a hash get two distinct ids
//
// Stable identity
//   - ids come from INTEGER PRIMARY KEY AUTOINCREMENT: monotonic,
//     assigned once, never renumbered or reclaimed
//   - id → raw_bytes is immutable after commit
//
// Transactional insert-or-get
//   - InsertOrGet runs bucket scan + insert in one transaction, so
//     concurrent inserts of identical bytes cannot mint two ids
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: cross-process lock contention
//   - Single-connection pool: one writer, no SQLITE_BUSY surprises
package store
