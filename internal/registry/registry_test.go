package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/collation"
	"github.com/roach88/lineage/internal/model"
)

func newSurnames(t *testing.T) *SurnameList {
	t.Helper()
	c, err := collation.New("en")
	require.NoError(t, err)
	return NewSurnameList(c)
}

func TestSurnameListOrder(t *testing.T) {
	l := newSurnames(t)

	for _, n := range []string{"smith", "Jones", "Ångström", "adams", "Jones", ""} {
		l.Add(n)
	}

	assert.Equal(t, []string{"adams", "Ångström", "Jones", "smith"}, l.Names())
	assert.Equal(t, 4, l.Len())
	assert.True(t, l.Contains("Jones"))
	assert.False(t, l.Contains(""))
}

func TestSurnameListRemove(t *testing.T) {
	l := newSurnames(t)
	l.Add("Smith")
	l.Add("Jones")

	assert.True(t, l.Remove("Smith"))
	assert.False(t, l.Remove("Smith"))
	assert.Equal(t, []string{"Jones"}, l.Names())
}

func TestSurnameListReset(t *testing.T) {
	l := newSurnames(t)
	l.Add("Old")

	l.Reset([]string{"b", "a", "b"})
	assert.Equal(t, []string{"a", "b"}, l.Names())
}

func TestSurnameListNamesIsCopy(t *testing.T) {
	l := newSurnames(t)
	l.Add("Smith")

	names := l.Names()
	names[0] = "changed"
	assert.True(t, l.Contains("Smith"))
}

func TestGenderKey(t *testing.T) {
	assert.Equal(t, "Mary", GenderKey("Mary Anne"))
	assert.Equal(t, "John", GenderKey(" John? "))
	assert.Equal(t, "", GenderKey(""))
}

func TestGenderStatsCountUncount(t *testing.T) {
	g := NewGenderStats()
	g.Count("Mary Anne", Female)
	g.Count("Mary", Female)
	g.Count("Mary", Unknown)

	c, ok := g.Get("Mary")
	require.True(t, ok)
	assert.Equal(t, GenderCount{Female: 2, Unknown: 1}, c)

	g.Uncount("Mary", Female)
	g.Uncount("Mary", Female)
	g.Uncount("Mary", Female)
	g.Uncount("Mary", Unknown)
	_, ok = g.Get("Mary")
	assert.False(t, ok, "zero tallies are dropped")

	g.Count("", Male)
	assert.Empty(t, g.Names())
}

func TestGenderStatsGuess(t *testing.T) {
	tests := []struct {
		name  string
		count GenderCount
		want  int
	}{
		{"only male", GenderCount{Male: 1}, Male},
		{"only female", GenderCount{Female: 3}, Female},
		{"male majority", GenderCount{Male: 3, Female: 1, Unknown: 1}, Male},
		{"female majority", GenderCount{Male: 1, Female: 3, Unknown: 2}, Female},
		{"close call", GenderCount{Male: 2, Female: 1}, Unknown},
		{"unknown only", GenderCount{Unknown: 4}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenderStats()
			g.Reset(map[string]GenderCount{"Alex": tt.count})
			assert.Equal(t, tt.want, g.Guess("Alex"))
		})
	}

	assert.Equal(t, Unknown, NewGenderStats().Guess("Nobody"))
}

func TestGenderStatsSnapshot(t *testing.T) {
	g := NewGenderStats()
	g.Count("Ann", Female)
	g.Count("Bob", Male)

	snap := g.Snapshot()
	assert.Equal(t, map[string]GenderCount{
		"Ann": {Female: 1},
		"Bob": {Male: 1},
	}, snap)
	assert.Equal(t, []string{"Ann", "Bob"}, g.Names())

	restored := NewGenderStats()
	restored.Reset(snap)
	assert.Equal(t, Female, restored.Guess("Ann"))
}

func TestTypeSets(t *testing.T) {
	ts := NewTypeSets()
	ts.Add(
		model.CustomType{Set: model.EventNames, Name: "Graduation"},
		model.CustomType{Set: model.EventNames, Name: "Baptism2"},
		model.CustomType{Set: model.EventNames, Name: "Graduation"},
		model.CustomType{Set: model.NoteTypes, Name: ""},
		model.CustomType{Set: model.TypeSet(99), Name: "x"},
	)

	assert.Equal(t, []string{"Baptism2", "Graduation"}, ts.Names(model.EventNames))
	assert.True(t, ts.Contains(model.EventNames, "Graduation"))
	assert.Empty(t, ts.Names(model.NoteTypes))
	assert.Empty(t, ts.Names(model.TypeSet(99)))

	ts.Reset(model.NoteTypes, []string{"Diary"})
	assert.Equal(t, []string{"Diary"}, ts.Names(model.NoteTypes))

	ts.Clear()
	assert.Empty(t, ts.Names(model.EventNames))
}
