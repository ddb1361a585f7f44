// Package history implements transactions and the undo/redo journal.
//
// A Transaction buffers the change records produced while it is open. When
// a non-batch transaction commits, each change is appended to a Log and the
// journal keeps only the log sequence numbers, so undo and redo replay the
// serialized before and after images rather than in-memory copies.
//
// Batch transactions record nothing. Committing one clears the whole
// history, because the journal can no longer reconstruct earlier states
// across it.
package history
