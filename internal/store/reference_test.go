package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/testutil"
)

// buildSmallTree adds a family with two parents and a child, a birth event
// with a citation and note, and a tag on the child. It returns handles by
// role.
func buildSmallTree(t *testing.T, s *Store) map[string]string {
	t.Helper()
	h := map[string]string{}
	h["tag"] = addOne(t, s, testutil.Tag("research"))
	h["note"] = addOne(t, s, testutil.Note("baptised the same day"))
	h["source"] = addOne(t, s, testutil.Source("Parish register"))
	h["citation"] = addOne(t, s, testutil.Citation(h["source"], "fol. 12"))
	h["place"] = addOne(t, s, testutil.Place("Uppsala", model.TypeValue{Value: 3}))

	birth := testutil.Event(model.TypeValue{Value: 12}, "1850-03-01", h["place"])
	birth.Citations = []string{h["citation"]}
	birth.Notes = []string{h["note"]}
	h["birth"] = addOne(t, s, birth)

	h["father"] = addOne(t, s, testutil.Person("Carl", "Lind", model.GenderMale))
	h["mother"] = addOne(t, s, testutil.Person("Eva", "Berg", model.GenderFemale))

	child := testutil.Person("Anna", "Lind", model.GenderFemale)
	child.EventRefs = []model.EventRef{{Handle: h["birth"]}}
	child.Tags = []string{h["tag"]}
	h["child"] = addOne(t, s, child)

	h["family"] = addOne(t, s, testutil.Family(h["father"], h["mother"], h["child"]))
	return h
}

func TestFindReferrers(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := buildSmallTree(t, s)

	tests := []struct {
		name   string
		target string
		kinds  []model.Kind
		want   []model.Ref
	}{
		{
			name:   "person referenced by family",
			target: h["father"],
			want:   []model.Ref{{Kind: model.KindFamily, Handle: h["family"]}},
		},
		{
			name:   "event referenced by person",
			target: h["birth"],
			want:   []model.Ref{{Kind: model.KindPerson, Handle: h["child"]}},
		},
		{
			name:   "source referenced by citation",
			target: h["source"],
			want:   []model.Ref{{Kind: model.KindCitation, Handle: h["citation"]}},
		},
		{
			name:   "tag referenced through base",
			target: h["tag"],
			want:   []model.Ref{{Kind: model.KindPerson, Handle: h["child"]}},
		},
		{
			name:   "filtered by kind",
			target: h["child"],
			kinds:  []model.Kind{model.KindEvent},
			want:   []model.Ref{},
		},
		{
			name:   "unreferenced",
			target: h["family"],
			want:   []model.Ref{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindReferrers(ctx, tt.target, tt.kinds...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindReferences(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := buildSmallTree(t, s)

	got, err := s.References().FindReferences(ctx, h["birth"])
	require.NoError(t, err)
	assert.Equal(t, []model.Ref{
		{Kind: model.KindPlace, Handle: h["place"]},
		{Kind: model.KindNote, Handle: h["note"]},
		{Kind: model.KindCitation, Handle: h["citation"]},
	}, got)
}

func TestReferences_UpdateReplacesRows(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := buildSmallTree(t, s)

	fam, found, err := s.Get(ctx, model.KindFamily, h["family"])
	require.NoError(t, err)
	require.True(t, found)
	fam.(*model.Family).Children = nil
	commitOne(t, s, fam)

	got, err := s.FindReferrers(ctx, h["child"])
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.FindReferrers(ctx, h["father"])
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReferences_DeletingTargetKeepsReferrerRows(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	h := buildSmallTree(t, s)

	removeOne(t, s, model.KindPerson, h["father"])

	got, err := s.FindReferrers(ctx, h["father"])
	require.NoError(t, err)
	assert.Equal(t, []model.Ref{{Kind: model.KindFamily, Handle: h["family"]}}, got)
}

func TestReferences_RebuildAllMatchesIncremental(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	buildSmallTree(t, s)

	incremental, err := s.References().All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, incremental)

	require.NoError(t, s.References().RebuildAll(ctx))
	rebuilt, err := s.References().All(ctx)
	require.NoError(t, err)
	assert.Equal(t, incremental, rebuilt)

	// Every reference a stored record carries is indexed.
	n, err := s.References().Count(ctx)
	require.NoError(t, err)
	want := 0
	for _, k := range model.Kinds {
		require.NoError(t, s.IterAll(ctx, k, false, func(r model.Record) error {
			want += len(r.References())
			return nil
		}))
	}
	assert.Equal(t, want, n)
}
