package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/history"
	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/testutil"
)

func TestAdd_ThenGetReturnsEqualRecord(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	family := &model.Family{Type: model.TypeValue{Value: 1}}
	family.Tags = []string{"T1"}
	person := &model.Person{
		Gender: model.GenderMale,
		PrimaryName: model.Name{
			First:    "Carl",
			Surnames: []model.Surname{{Surname: "Lind", Primary: true}},
			Type:     model.TypeValue{Value: 2},
		},
		Families:   []string{"F-1"},
		Attributes: []model.Attribute{{Type: model.CustomType("Shoe size"), Value: "44"}},
		URLs:       []model.URL{{Path: "https://example.org", Type: model.TypeValue{Value: 1}}},
	}

	tests := []model.Record{
		person,
		family,
		testutil.Note("a note"),
		testutil.Place("Uppsala", model.TypeValue{Value: 3}),
		testutil.Tag("todo"),
	}
	for _, r := range tests {
		t.Run(r.Kind().String(), func(t *testing.T) {
			handle := addOne(t, s, r)

			got, found, err := s.Get(ctx, r.Kind(), handle)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, r, got)
		})
	}
}

func TestAdd_GeneratesHandleAndHumanID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	p := testutil.Person("Ann", "Smith", model.GenderFemale)
	h := addOne(t, s, p)

	assert.Equal(t, "H0001", h)
	assert.Equal(t, "H0001", p.Handle)
	assert.Equal(t, "I0001", p.ID)

	got, found, err := s.GetByHumanID(ctx, model.KindPerson, "I0001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, h, got.Meta().Handle)
}

func TestAdd_HumanIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	a := testutil.Person("Ann", "Smith", model.GenderFemale)
	b := testutil.Person("Bob", "Smith", model.GenderMale)
	addOne(t, s, a)
	hb := addOne(t, s, b)
	assert.Equal(t, "I0001", a.ID)
	assert.Equal(t, "I0002", b.ID)

	removeOne(t, s, model.KindPerson, hb)

	id, err := s.NextID(ctx, model.KindPerson)
	require.NoError(t, err)
	assert.Equal(t, "I0003", id)
}

func TestAdd_SkipsHumanIDsAlreadyTaken(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	taken := testutil.Note("first")
	taken.ID = "N0001"
	addOne(t, s, taken)

	id, err := s.NextID(ctx, model.KindNote)
	require.NoError(t, err)
	assert.Equal(t, "N0002", id)
}

func TestAdd_DefaultPrefixes(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		record model.Record
		want   string
	}{
		{&model.Person{}, "I0001"},
		{&model.Family{}, "F0001"},
		{&model.Source{}, "S0001"},
		{&model.Event{}, "E0001"},
		{&model.Media{}, "O0001"},
		{&model.Place{}, "P0001"},
		{&model.Repository{}, "R0001"},
		{&model.Note{}, "N0001"},
		{&model.Citation{}, "C0001"},
	}
	for _, tt := range tests {
		t.Run(tt.record.Kind().String(), func(t *testing.T) {
			addOne(t, s, tt.record)
			assert.Equal(t, tt.want, tt.record.Meta().ID)
		})
	}
}

func TestAdd_TagHasNoHumanID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	tag := testutil.Tag("todo")
	addOne(t, s, tag)
	assert.Empty(t, tag.ID)

	_, err := s.NextID(ctx, model.KindTag)
	assert.True(t, IsInvalidRecord(err))
}

func TestAdd_WithoutHumanID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	p := testutil.Person("Ann", "Smith", model.GenderFemale)
	txn := s.Begin("Add person", false)
	_, err := s.Add(ctx, txn, p, WithoutHumanID())
	require.NoError(t, err)
	require.NoError(t, s.CommitTransaction(ctx, txn))

	assert.Empty(t, p.ID)
	ids, err := s.HumanIDs(ctx, model.KindPerson)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCommitRecord_DuplicateHumanID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	addOne(t, s, testutil.Person("Ann", "Smith", model.GenderFemale))

	dup := testutil.Person("Bob", "Smith", model.GenderMale)
	dup.Handle = "other"
	dup.ID = "I0001"
	txn := s.Begin("Add duplicate", false)
	err := s.CommitRecord(ctx, txn, dup)
	require.Error(t, err)
	assert.True(t, IsDuplicateHumanID(err), "got %v", err)

	found, err := s.HasHandle(ctx, model.KindPerson, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCommitRecord_RequiresHandle(t *testing.T) {
	s := createTestStore(t)
	txn := s.Begin("Edit", false)
	err := s.CommitRecord(context.Background(), txn, testutil.Note("x"))
	assert.True(t, IsInvalidRecord(err))
}

func TestCommitRecord_RejectsNil(t *testing.T) {
	s := createTestStore(t)
	txn := s.Begin("Edit", false)
	err := s.CommitRecord(context.Background(), txn, nil)
	assert.True(t, IsInvalidRecord(err))
}

func TestCommitRecord_StoresCanonicalBytes(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	p := testutil.Person("Ann", "Smith", model.GenderFemale)
	h := addOne(t, s, p)

	raw, found, err := s.GetRaw(ctx, model.KindPerson, h)
	require.NoError(t, err)
	require.True(t, found)

	decoded, err := codec.DecodeRecord(model.KindPerson, raw)
	require.NoError(t, err)
	again, err := codec.EncodeRecord(decoded)
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	// Committing the decoded record unchanged leaves the row byte-identical.
	commitOne(t, s, decoded)
	after, _, err := s.GetRaw(ctx, model.KindPerson, h)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}

func TestCommit_ClosedTransaction(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	txn := s.Begin("Add", false)
	require.NoError(t, s.CommitTransaction(ctx, txn))

	_, err := s.Add(ctx, txn, testutil.Note("late"))
	assert.ErrorIs(t, err, history.ErrClosed)
	assert.ErrorIs(t, s.Remove(ctx, txn, model.KindNote, "H0001"), history.ErrClosed)
	assert.ErrorIs(t, s.CommitTransaction(ctx, txn), history.ErrClosed)
}

func TestCommit_EmptyTransactionIsNotUndoable(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	txn := s.Begin("Nothing", false)
	require.NoError(t, s.CommitTransaction(ctx, txn))
	assert.False(t, s.History().CanUndo())
}

func TestRemove_AbsentRecordIsNoop(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	s := createTestStore(t, WithEventSink(sink))

	txn := s.Begin("Delete", false)
	require.NoError(t, s.Remove(ctx, txn, model.KindPerson, "missing"))
	assert.Equal(t, 0, txn.Len())
	assert.Empty(t, sink.Signals())
}

func TestRemove_InvalidKind(t *testing.T) {
	s := createTestStore(t)
	txn := s.Begin("Delete", false)
	err := s.Remove(context.Background(), txn, model.Kind(42), "x")
	assert.True(t, IsInvalidRecord(err))
}

func TestCommit_EmitsEvents(t *testing.T) {
	sink := &recordingSink{}
	s := createTestStore(t, WithEventSink(sink))

	p := testutil.Person("Ann", "Smith", model.GenderFemale)
	h := addOne(t, s, p)
	p.PrimaryName.First = "Anna"
	commitOne(t, s, p)
	removeOne(t, s, model.KindPerson, h)

	assert.Equal(t, []string{"person-add", "person-update", "person-delete"}, sink.Signals())
	assert.Equal(t, []string{h}, sink.events[0].Handles)
}

func TestCommit_SinkPanicIsContained(t *testing.T) {
	ctx := context.Background()
	calls := 0
	s := createTestStore(t, WithEventSink(EventSinkFunc(func(Event) {
		calls++
		panic("subscriber bug")
	})))

	h := addOne(t, s, testutil.Note("still stored"))
	assert.Equal(t, 1, calls)

	found, err := s.HasHandle(ctx, model.KindNote, h)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestBatch_RebuildsDerivedStateAtCommit(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	s := createTestStore(t, WithEventSink(sink))

	addOne(t, s, testutil.Note("before batch"))
	require.True(t, s.History().CanUndo())
	sink.Reset()

	txn := s.Begin("Import", true)
	ph, err := s.Add(ctx, txn, testutil.Person("Ann", "Smith", model.GenderFemale))
	require.NoError(t, err)
	fh, err := s.Add(ctx, txn, testutil.Family(ph, ""))
	require.NoError(t, err)

	// Nothing derived is maintained until commit.
	assert.Equal(t, 0, txn.Len())
	assert.Empty(t, sink.Signals())
	assert.Empty(t, s.Surnames())
	referrers, err := s.FindReferrers(ctx, ph)
	require.NoError(t, err)
	assert.Empty(t, referrers)

	require.NoError(t, s.CommitTransaction(ctx, txn))

	assert.Equal(t, []string{"Smith"}, s.Surnames())
	referrers, err = s.FindReferrers(ctx, ph)
	require.NoError(t, err)
	assert.Equal(t, []model.Ref{{Kind: model.KindFamily, Handle: fh}}, referrers)

	assert.False(t, s.History().CanUndo(), "batch commit clears history")
	assert.ErrorIs(t, s.Undo(ctx), history.ErrEmptyHistory)

	signals := sink.Signals()
	assert.Len(t, signals, model.KindCount)
	assert.Contains(t, signals, "person-rebuild")
	assert.Contains(t, signals, "tag-rebuild")
}

func TestAbort_KeepsWrittenRowsButNoHistory(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	txn := s.Begin("Add then abort", false)
	h, err := s.Add(ctx, txn, testutil.Note("kept"))
	require.NoError(t, err)
	require.NoError(t, s.Abort(txn))

	found, err := s.HasHandle(ctx, model.KindNote, h)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, s.History().CanUndo())
	assert.ErrorIs(t, s.Abort(txn), history.ErrClosed)
}

func TestStoreError_Format(t *testing.T) {
	err := &Error{Code: CodeStorage, Op: "insert person", Key: "H1", Err: errors.New("disk full")}
	assert.Equal(t, "STORAGE: insert person H1: disk full", err.Error())
	assert.True(t, IsStorageFailure(err))
	assert.False(t, IsDuplicateHumanID(err))
	assert.ErrorContains(t, err, "disk full")
}
