package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
)

func (s *Store) table(kind model.Kind) (*Table, error) {
	if !kind.Valid() {
		return nil, &Error{Code: CodeInvalidRecord, Op: "lookup", Err: fmt.Errorf("invalid kind %d", int(kind))}
	}
	return s.tables[kind], nil
}

// Table returns the table of a kind, or nil for an invalid kind.
func (s *Store) Table(kind model.Kind) *Table {
	if !kind.Valid() {
		return nil
	}
	return s.tables[kind]
}

// Map returns the handle-keyed view of a kind, or nil for an invalid kind.
func (s *Store) Map(kind model.Kind) *Map {
	if !kind.Valid() {
		return nil
	}
	return s.maps[kind]
}

// IDMap returns the human-ID-keyed view of a kind, or nil for an invalid
// kind.
func (s *Store) IDMap(kind model.Kind) *Map {
	if !kind.Valid() {
		return nil
	}
	return s.idMaps[kind]
}

// References returns the reference index.
func (s *Store) References() *ReferenceIndex {
	return s.refs
}

// Get returns the record with handle.
func (s *Store) Get(ctx context.Context, kind model.Kind, handle string) (model.Record, bool, error) {
	data, found, err := s.GetRaw(ctx, kind, handle)
	if err != nil || !found {
		return nil, false, err
	}
	r, err := codec.DecodeRecord(kind, data)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// GetRaw returns the serialized record with handle.
func (s *Store) GetRaw(ctx context.Context, kind model.Kind, handle string) ([]byte, bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, false, err
	}
	return t.Get(ctx, handle)
}

// GetByHumanID returns the record with human ID id.
func (s *Store) GetByHumanID(ctx context.Context, kind model.Kind, id string) (model.Record, bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, false, err
	}
	_, data, found, err := t.GetByHumanID(ctx, id)
	if err != nil || !found {
		return nil, false, err
	}
	r, err := codec.DecodeRecord(kind, data)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// HasHandle reports whether a record with handle exists.
func (s *Store) HasHandle(ctx context.Context, kind model.Kind, handle string) (bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return false, err
	}
	return t.Contains(ctx, handle)
}

// HasHumanID reports whether a record with human ID id exists.
func (s *Store) HasHumanID(ctx context.Context, kind model.Kind, id string) (bool, error) {
	t, err := s.table(kind)
	if err != nil {
		return false, err
	}
	return t.ContainsHumanID(ctx, id)
}

// Count returns the number of records of a kind.
func (s *Store) Count(ctx context.Context, kind model.Kind) (int, error) {
	t, err := s.table(kind)
	if err != nil {
		return 0, err
	}
	return t.Count(ctx)
}

// Handles returns every handle of a kind, in collation order when sorted.
func (s *Store) Handles(ctx context.Context, kind model.Kind, sorted bool) ([]string, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	return t.Keys(ctx, sorted)
}

// HumanIDs returns every assigned human ID of a kind.
func (s *Store) HumanIDs(ctx context.Context, kind model.Kind) ([]string, error) {
	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	return t.HumanIDs(ctx)
}

// Cursor iterates over the serialized records of a kind.
// An unknown kind yields a cursor whose Err reports it.
func (s *Store) Cursor(kind model.Kind, sorted bool) *Cursor {
	t, err := s.table(kind)
	if err != nil {
		return &Cursor{err: err}
	}
	return t.Cursor(sorted)
}

// IterAll calls fn with every record of a kind until fn returns an error.
func (s *Store) IterAll(ctx context.Context, kind model.Kind, sorted bool, fn func(model.Record) error) error {
	t, err := s.table(kind)
	if err != nil {
		return err
	}
	return t.Scan(ctx, sorted, func(handle string, payload []byte) error {
		r, err := codec.DecodeRecord(kind, payload)
		if err != nil {
			return fmt.Errorf("%s %s: %w", kind, handle, err)
		}
		return fn(r)
	})
}

// FindReferrers returns the records referencing handle, optionally only
// those of the given kinds.
func (s *Store) FindReferrers(ctx context.Context, handle string, kinds ...model.Kind) ([]model.Ref, error) {
	return s.refs.FindReferrers(ctx, handle, kinds...)
}

// NextID allocates the next free human ID of a kind.
func (s *Store) NextID(ctx context.Context, kind model.Kind) (string, error) {
	if !kind.HasHumanID() {
		return "", &Error{Code: CodeInvalidRecord, Op: "next id " + kind.String()}
	}
	return s.allocators[kind].Next(ctx)
}

// Summary returns the number of records of each kind.
func (s *Store) Summary(ctx context.Context) (map[model.Kind]int, error) {
	out := make(map[model.Kind]int, model.KindCount)
	for _, k := range model.Kinds {
		n, err := s.tables[k].Count(ctx)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// IsEmpty reports whether the store holds no records at all.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	counts, err := s.Summary(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range counts {
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

// FindInitialPerson returns the home person if set and present, otherwise
// the first person in collation order.
func (s *Store) FindInitialPerson(ctx context.Context) (*model.Person, bool, error) {
	handle, err := s.DefaultPersonHandle(ctx)
	if err != nil {
		return nil, false, err
	}
	if handle != "" {
		r, found, err := s.Get(ctx, model.KindPerson, handle)
		if err != nil {
			return nil, false, err
		}
		if found {
			return r.(*model.Person), true, nil
		}
	}

	c := s.tables[model.KindPerson].Cursor(true)
	if !c.Next(ctx) {
		return nil, false, c.Err()
	}
	r, err := codec.DecodeRecord(model.KindPerson, c.Payload())
	if err != nil {
		return nil, false, fmt.Errorf("person %s: %w", c.Handle(), err)
	}
	return r.(*model.Person), true, nil
}

// RequestRebuild emits a rebuild event for every kind.
func (s *Store) RequestRebuild() {
	for _, k := range model.Kinds {
		s.emit(Event{Kind: k, Action: ActionRebuild})
	}
}
