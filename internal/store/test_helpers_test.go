package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/testutil"
)

// createTestStore opens a store in a fresh temporary directory with
// sequential handles and an in-memory undo log.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return openTestStore(t, t.TempDir(), opts...)
}

// openTestStore opens the store in dir. The store is closed at cleanup.
func openTestStore(t *testing.T, dir string, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHandleGenerator(testutil.NewSequentialHandles("H")),
		WithUndoLog(history.NewMemoryLog()),
	}
	s, err := Open(context.Background(), dir, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// addOne stores r in its own committed transaction and returns its handle.
func addOne(t *testing.T, s *Store, r model.Record) string {
	t.Helper()
	ctx := context.Background()
	txn := s.Begin("Add "+r.Kind().String(), false)
	handle, err := s.Add(ctx, txn, r)
	require.NoError(t, err)
	require.NoError(t, s.CommitTransaction(ctx, txn))
	return handle
}

// commitOne rewrites r in its own committed transaction.
func commitOne(t *testing.T, s *Store, r model.Record) {
	t.Helper()
	ctx := context.Background()
	txn := s.Begin("Edit "+r.Kind().String(), false)
	require.NoError(t, s.CommitRecord(ctx, txn, r))
	require.NoError(t, s.CommitTransaction(ctx, txn))
}

// removeOne deletes a record in its own committed transaction.
func removeOne(t *testing.T, s *Store, kind model.Kind, handle string) {
	t.Helper()
	ctx := context.Background()
	txn := s.Begin("Delete "+kind.String(), false)
	require.NoError(t, s.Remove(ctx, txn, kind, handle))
	require.NoError(t, s.CommitTransaction(ctx, txn))
}

func getPerson(t *testing.T, s *Store, handle string) *model.Person {
	t.Helper()
	r, found, err := s.Get(context.Background(), model.KindPerson, handle)
	require.NoError(t, err)
	require.True(t, found, "person %s not found", handle)
	return r.(*model.Person)
}

// recordingSink collects emitted signals.
type recordingSink struct {
	mu      sync.Mutex
	signals []string
	events  []Event
}

func (r *recordingSink) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, e.Signal())
	r.events = append(r.events, e)
}

func (r *recordingSink) Signals() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.signals...)
}

func (r *recordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = nil
	r.events = nil
}
