// Package store persists a genealogy tree in SQLite.
//
// Each of the ten record kinds lives in its own table keyed by handle, with
// a unique human ID column, a collation order key and the msgpack-encoded
// record. Alongside the record tables the store keeps:
//   - reference: one row per (referrer, referenced) pair, rebuilt per record
//     on every non-batch write
//   - metadata: registry snapshots, bookmarks, ID templates and the home
//     person
//
// # Transactions
//
// Writes go through a history.Transaction. A non-batch transaction updates
// the reference index and registries record by record and becomes one undo
// step when committed. A batch transaction writes rows only; its commit
// rebuilds every derived structure and clears the undo history.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout from settings.yaml
//   - a single pooled connection
package store
