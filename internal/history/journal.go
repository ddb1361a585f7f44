package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
)

// ErrEmptyHistory is returned by Undo and Redo when there is nothing to step
// over.
var ErrEmptyHistory = errors.New("no more history")

// Applier writes a serialized record image back to storage. A nil data
// slice means the record must be deleted.
type Applier interface {
	ApplyChange(ctx context.Context, kind model.Kind, handle string, data []byte) error
}

// Callbacks are invoked after the stacks change. The description is that of
// the new top entry; ok is false when the stack is empty.
type Callbacks struct {
	Undo    func(description string, ok bool)
	Redo    func(description string, ok bool)
	History func()
}

type entry struct {
	description string
	seqs        []uint64
}

// Journal keeps the undo and redo stacks of committed transactions.
type Journal struct {
	log       Log
	undo      []entry
	redo      []entry
	callbacks Callbacks
}

// NewJournal returns an empty journal backed by log.
func NewJournal(log Log) *Journal {
	return &Journal{log: log}
}

// SetCallbacks replaces the notification callbacks.
func (j *Journal) SetCallbacks(cb Callbacks) {
	j.callbacks = cb
}

// Commit records txn and closes it. A batch transaction clears the history
// instead. A transaction with no changes leaves the stacks untouched.
//
// If the log rejects a change, the records already appended are removed and
// txn stays open so the caller can retry or abort it. Committing drops the
// redo stack and deletes its records; an error doing so is returned after
// the commit has taken effect.
func (j *Journal) Commit(txn *Transaction) error {
	if !txn.IsOpen() {
		return ErrClosed
	}
	if txn.Batch() || txn.Len() == 0 {
		if err := txn.close(); err != nil {
			return err
		}
		if txn.Batch() {
			return j.Clear()
		}
		return nil
	}

	e := entry{description: txn.Description(), seqs: make([]uint64, 0, txn.Len())}
	for i, c := range txn.changes {
		data, err := codec.Marshal(c)
		if err == nil {
			var seq uint64
			if seq, err = j.log.Append(data); err == nil {
				e.seqs = append(e.seqs, seq)
				continue
			}
		}
		if derr := j.log.Delete(e.seqs...); derr != nil {
			err = errors.Join(err, derr)
		}
		return fmt.Errorf("commit %q: change %d: %w", txn.Description(), i, err)
	}
	if err := txn.close(); err != nil {
		return err
	}
	j.undo = append(j.undo, e)
	dropped := j.redo
	j.redo = nil
	j.notify()
	return j.discard(dropped)
}

// discard removes the log records of entries that can no longer be reached.
func (j *Journal) discard(entries []entry) error {
	var seqs []uint64
	for _, e := range entries {
		seqs = append(seqs, e.seqs...)
	}
	if len(seqs) == 0 {
		return nil
	}
	if err := j.log.Delete(seqs...); err != nil {
		return fmt.Errorf("discard redo history: %w", err)
	}
	return nil
}

// Undo reverts the most recent transaction by applying each change's before
// image in reverse order. If applying fails the entry stays on the undo
// stack and the error is returned.
func (j *Journal) Undo(ctx context.Context, a Applier) error {
	if len(j.undo) == 0 {
		j.notify()
		return ErrEmptyHistory
	}
	e := j.undo[len(j.undo)-1]
	for i := len(e.seqs) - 1; i >= 0; i-- {
		c, err := j.change(e.seqs[i])
		if err != nil {
			return fmt.Errorf("undo %q: %w", e.description, err)
		}
		if err := a.ApplyChange(ctx, c.Kind, c.Handle, c.Before); err != nil {
			return fmt.Errorf("undo %q: %s %s: %w", e.description, c.Kind, c.Handle, err)
		}
	}
	j.undo = j.undo[:len(j.undo)-1]
	j.redo = append(j.redo, e)
	j.notify()
	return nil
}

// Redo re-applies the most recently undone transaction by applying each
// change's after image in forward order.
func (j *Journal) Redo(ctx context.Context, a Applier) error {
	if len(j.redo) == 0 {
		j.notify()
		return ErrEmptyHistory
	}
	e := j.redo[len(j.redo)-1]
	for _, seq := range e.seqs {
		c, err := j.change(seq)
		if err != nil {
			return fmt.Errorf("redo %q: %w", e.description, err)
		}
		if err := a.ApplyChange(ctx, c.Kind, c.Handle, c.After); err != nil {
			return fmt.Errorf("redo %q: %s %s: %w", e.description, c.Kind, c.Handle, err)
		}
	}
	j.redo = j.redo[:len(j.redo)-1]
	j.undo = append(j.undo, e)
	j.notify()
	return nil
}

func (j *Journal) change(seq uint64) (Change, error) {
	var c Change
	data, err := j.log.Get(seq)
	if err != nil {
		return c, err
	}
	if err := codec.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("log record %d: %w", seq, err)
	}
	return c, nil
}

// Clear drops both stacks and empties the log.
func (j *Journal) Clear() error {
	j.undo = nil
	j.redo = nil
	if err := j.log.Reset(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	j.notify()
	return nil
}

func (j *Journal) notify() {
	if j.callbacks.Undo != nil {
		desc, ok := top(j.undo)
		j.callbacks.Undo(desc, ok)
	}
	if j.callbacks.Redo != nil {
		desc, ok := top(j.redo)
		j.callbacks.Redo(desc, ok)
	}
	if j.callbacks.History != nil {
		j.callbacks.History()
	}
}

func top(stack []entry) (string, bool) {
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1].description, true
}

// CanUndo reports whether Undo has anything to revert.
func (j *Journal) CanUndo() bool {
	return len(j.undo) > 0
}

// CanRedo reports whether Redo has anything to re-apply.
func (j *Journal) CanRedo() bool {
	return len(j.redo) > 0
}

// UndoDescriptions lists undoable transactions, most recent first.
func (j *Journal) UndoDescriptions() []string {
	return descriptions(j.undo)
}

// RedoDescriptions lists redoable transactions, most recently undone first.
func (j *Journal) RedoDescriptions() []string {
	return descriptions(j.redo)
}

func descriptions(stack []entry) []string {
	out := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i].description)
	}
	return out
}

// Close releases the log.
func (j *Journal) Close() error {
	j.undo = nil
	j.redo = nil
	return j.log.Close()
}
