package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/model"
)

// Begin opens a transaction. Batch transactions skip per-record index
// maintenance and history; committing one rebuilds every derived structure
// and clears the undo history.
func (s *Store) Begin(description string, batch bool) *history.Transaction {
	return history.NewTransaction(description, batch)
}

type addOptions struct {
	noHumanID bool
}

// AddOption configures Add.
type AddOption func(*addOptions)

// WithoutHumanID stops Add from assigning a human ID.
func WithoutHumanID() AddOption {
	return func(o *addOptions) { o.noHumanID = true }
}

// Add stores a new record. A missing handle is generated and, unless
// WithoutHumanID is given, a missing human ID is allocated for kinds that
// have one. The handle is returned.
func (s *Store) Add(ctx context.Context, txn *history.Transaction, r model.Record, opts ...AddOption) (string, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkRecord(r); err != nil {
		return "", err
	}
	if !txn.IsOpen() {
		return "", history.ErrClosed
	}

	meta := r.Meta()
	if meta.Handle == "" {
		meta.Handle = s.handles.Generate()
	}
	if !o.noHumanID && meta.ID == "" && r.Kind().HasHumanID() {
		id, err := s.NextID(ctx, r.Kind())
		if err != nil {
			return "", fmt.Errorf("add %s: %w", r.Kind(), err)
		}
		meta.ID = id
	}
	if err := s.CommitRecord(ctx, txn, r); err != nil {
		return "", err
	}
	return meta.Handle, nil
}

// CommitRecord writes r, inserting or updating by handle. Outside a batch it
// also refreshes r's reference rows and the registries, records the change
// in txn and emits an add or update event.
func (s *Store) CommitRecord(ctx context.Context, txn *history.Transaction, r model.Record) error {
	if err := checkRecord(r); err != nil {
		return err
	}
	if r.Meta().Handle == "" {
		return &Error{Code: CodeInvalidRecord, Op: "commit " + r.Kind().Table(), Err: fmt.Errorf("record has no handle")}
	}
	if !txn.IsOpen() {
		return history.ErrClosed
	}

	payload, err := codec.EncodeRecord(r)
	if err != nil {
		return &Error{Code: CodeInvalidRecord, Op: "commit " + r.Kind().Table(), Key: r.Meta().Handle, Err: err}
	}
	before, err := s.put(ctx, r, payload, txn.Batch())
	if err != nil {
		return err
	}
	if txn.Batch() {
		return nil
	}

	kind, handle := r.Kind(), r.Meta().Handle
	change := history.Change{Kind: kind, Op: history.OpAdd, Handle: handle, Before: before, After: payload}
	action := ActionAdd
	if before != nil {
		change.Op = history.OpUpdate
		action = ActionUpdate
	}
	if err := txn.Record(change); err != nil {
		return err
	}
	s.logger.Debug("commit", "kind", kind.String(), "handle", handle, "op", change.Op.String())
	s.emit(Event{Kind: kind, Action: action, Handles: []string{handle}})
	return nil
}

// Remove deletes the record with handle. Removing an absent record does
// nothing. Outside a batch the record's own reference rows are dropped, the
// registries are updated, the change is recorded and a delete event is
// emitted.
func (s *Store) Remove(ctx context.Context, txn *history.Transaction, kind model.Kind, handle string) error {
	if !kind.Valid() {
		return &Error{Code: CodeInvalidRecord, Op: "remove", Key: handle, Err: fmt.Errorf("invalid kind %d", int(kind))}
	}
	if !txn.IsOpen() {
		return history.ErrClosed
	}

	before, err := s.drop(ctx, kind, handle, txn.Batch())
	if err != nil || before == nil || txn.Batch() {
		return err
	}
	if err := txn.Record(history.Change{Kind: kind, Op: history.OpDelete, Handle: handle, Before: before}); err != nil {
		return err
	}
	s.logger.Debug("commit", "kind", kind.String(), "handle", handle, "op", history.OpDelete.String())
	s.emit(Event{Kind: kind, Action: ActionDelete, Handles: []string{handle}})
	return nil
}

// CommitTransaction closes txn. A non-batch transaction becomes one undo
// step. A batch transaction triggers a full rebuild of references and
// registries, clears the undo history and emits one rebuild event per kind.
func (s *Store) CommitTransaction(ctx context.Context, txn *history.Transaction) error {
	if !txn.IsOpen() {
		return history.ErrClosed
	}
	if txn.Batch() {
		if err := s.refs.RebuildAll(ctx); err != nil {
			return err
		}
		if err := s.RebuildRegistries(ctx); err != nil {
			return err
		}
	}
	if err := s.journal.Commit(txn); err != nil {
		return err
	}
	s.logger.Debug("transaction committed",
		"description", txn.Description(),
		"batch", txn.Batch(),
		"changes", txn.Len(),
	)
	if txn.Batch() {
		s.RequestRebuild()
	}
	return nil
}

// Abort closes txn without recording it. Rows already written stay written.
func (s *Store) Abort(txn *history.Transaction) error {
	n := txn.Len()
	if err := txn.Abort(); err != nil {
		return err
	}
	s.logger.Debug("transaction aborted", "description", txn.Description(), "changes", n)
	return nil
}

// Undo reverts the most recent transaction. It returns
// history.ErrEmptyHistory when there is none.
func (s *Store) Undo(ctx context.Context) error {
	return s.journal.Undo(ctx, replayer{s})
}

// Redo re-applies the most recently undone transaction. It returns
// history.ErrEmptyHistory when there is none.
func (s *Store) Redo(ctx context.Context) error {
	return s.journal.Redo(ctx, replayer{s})
}

// History returns the undo/redo journal, for descriptions and callbacks.
func (s *Store) History() *history.Journal {
	return s.journal
}

// replayer applies journal images through the same write path as commits
// without recording new changes.
type replayer struct {
	s *Store
}

func (p replayer) ApplyChange(ctx context.Context, kind model.Kind, handle string, data []byte) error {
	s := p.s
	if data == nil {
		before, err := s.drop(ctx, kind, handle, false)
		if err != nil || before == nil {
			return err
		}
		s.emit(Event{Kind: kind, Action: ActionDelete, Handles: []string{handle}})
		return nil
	}

	r, err := codec.DecodeRecord(kind, data)
	if err != nil {
		return err
	}
	if r.Meta().Handle != handle {
		return fmt.Errorf("replay %s %s: image carries handle %q", kind, handle, r.Meta().Handle)
	}
	before, err := s.put(ctx, r, data, false)
	if err != nil {
		return err
	}
	action := ActionAdd
	if before != nil {
		action = ActionUpdate
	}
	s.emit(Event{Kind: kind, Action: action, Handles: []string{handle}})
	return nil
}

// put writes r with the given payload and, unless batch, maintains the
// reference index and registries. It returns the previous payload, nil for
// an insert.
func (s *Store) put(ctx context.Context, r model.Record, payload []byte, batch bool) ([]byte, error) {
	kind := r.Kind()
	t := s.tables[kind]
	handle := r.Meta().Handle

	before, existed, err := t.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	row := descriptors[kind].row(r, s.collator.Key(model.OrderText(r)), payload)
	if existed {
		err = t.Update(ctx, row)
	} else {
		err = t.Insert(ctx, row)
	}
	if err != nil {
		return nil, err
	}
	if batch {
		return before, nil
	}

	var old model.Record
	if existed {
		if old, err = codec.DecodeRecord(kind, before); err != nil {
			return nil, err
		}
	}
	if err := s.refs.RebuildFor(ctx, r); err != nil {
		return nil, err
	}
	if err := s.indexRegistries(ctx, old, r); err != nil {
		return nil, err
	}
	return before, nil
}

// drop deletes the row with handle and, unless batch, maintains the
// reference index and registries. It returns the previous payload, nil when
// there was no row.
func (s *Store) drop(ctx context.Context, kind model.Kind, handle string, batch bool) ([]byte, error) {
	t := s.tables[kind]
	before, existed, err := t.Get(ctx, handle)
	if err != nil || !existed {
		return nil, err
	}
	if err := t.Delete(ctx, handle); err != nil {
		return nil, err
	}
	if batch {
		return before, nil
	}

	old, err := codec.DecodeRecord(kind, before)
	if err != nil {
		return nil, err
	}
	if err := s.refs.DeleteFor(ctx, handle); err != nil {
		return nil, err
	}
	if err := s.indexRegistries(ctx, old, nil); err != nil {
		return nil, err
	}
	return before, nil
}

func checkRecord(r model.Record) error {
	if r == nil || !r.Kind().Valid() {
		return &Error{Code: CodeInvalidRecord, Op: "commit", Err: fmt.Errorf("nil or invalid record")}
	}
	return nil
}
