package history

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/lineage/internal/model"
)

// ErrClosed is returned when a committed or aborted transaction is used.
var ErrClosed = errors.New("transaction is closed")

// Op is the kind of mutation a change record describes.
type Op int

const (
	OpAdd    Op = 0
	OpDelete Op = 1
	OpUpdate Op = 2
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	case OpUpdate:
		return "update"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Change is one mutation of one record. Before is nil for an add and After
// is nil for a delete.
type Change struct {
	Kind   model.Kind `json:"kind"`
	Op     Op         `json:"op"`
	Handle string     `json:"handle"`
	Before []byte     `json:"before"`
	After  []byte     `json:"after"`
}

type txnState int

const (
	stateOpen txnState = iota
	stateCommitted
	stateAborted
)

// Transaction is an ordered buffer of changes between begin and commit.
type Transaction struct {
	description string
	batch       bool
	changes     []Change
	state       txnState
}

// NewTransaction opens a transaction.
func NewTransaction(description string, batch bool) *Transaction {
	return &Transaction{description: description, batch: batch}
}

// Description returns the human-readable label shown in undo menus.
func (t *Transaction) Description() string {
	return t.description
}

// SetDescription relabels the transaction before it is committed.
func (t *Transaction) SetDescription(description string) {
	t.description = description
}

// Batch reports whether the transaction skips change recording.
func (t *Transaction) Batch() bool {
	return t.batch
}

// IsOpen reports whether the transaction still accepts changes.
func (t *Transaction) IsOpen() bool {
	return t.state == stateOpen
}

// Committed reports whether the transaction was committed.
func (t *Transaction) Committed() bool {
	return t.state == stateCommitted
}

// Record appends a change. Batch transactions accept and drop it.
func (t *Transaction) Record(c Change) error {
	if t.state != stateOpen {
		return ErrClosed
	}
	if t.batch {
		return nil
	}
	t.changes = append(t.changes, c)
	return nil
}

// Changes returns the recorded changes in commit order.
func (t *Transaction) Changes() []Change {
	return slices.Clone(t.changes)
}

// Len returns the number of recorded changes.
func (t *Transaction) Len() int {
	return len(t.changes)
}

// Abort closes the transaction and discards its changes.
func (t *Transaction) Abort() error {
	if t.state != stateOpen {
		return ErrClosed
	}
	t.state = stateAborted
	t.changes = nil
	return nil
}

func (t *Transaction) close() error {
	if t.state != stateOpen {
		return ErrClosed
	}
	t.state = stateCommitted
	return nil
}
