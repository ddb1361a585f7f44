package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/model"
)

func TestSequentialHandles_Sequence(t *testing.T) {
	g := NewSequentialHandles("")
	assert.Equal(t, 0, g.Current())
	assert.Equal(t, "H0001", g.Generate())
	assert.Equal(t, "H0002", g.Generate())
	assert.Equal(t, 2, g.Current())
}

func TestSequentialHandles_Prefix(t *testing.T) {
	g := NewSequentialHandles("fam-")
	assert.Equal(t, "fam-0001", g.Generate())
}

func TestSequentialHandles_Reset(t *testing.T) {
	g := NewSequentialHandles("H")
	g.Generate()
	g.Generate()
	g.Reset()
	assert.Equal(t, 0, g.Current())
	assert.Equal(t, "H0001", g.Generate())
}

func TestSequentialHandles_ThreadSafe(t *testing.T) {
	g := NewSequentialHandles("H")
	const workers = 50
	const perWorker = 40

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				h := g.Generate()
				mu.Lock()
				seen[h] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, g.Current())
}

func TestRecordFixtures(t *testing.T) {
	p := Person("Ann", "Smith", model.GenderFemale)
	assert.Equal(t, "Smith", p.PrimarySurname())
	assert.Equal(t, "Ann", p.GivenName())
	assert.Empty(t, Person("Bo", "", model.GenderMale).PrimarySurname())

	f := Family("P1", "P2", "P3")
	assert.Equal(t, []model.Ref{
		{Kind: model.KindPerson, Handle: "P1"},
		{Kind: model.KindPerson, Handle: "P2"},
		{Kind: model.KindPerson, Handle: "P3"},
	}, f.References())

	c := Citation("S1", "p. 4")
	assert.Equal(t, []model.Ref{{Kind: model.KindSource, Handle: "S1"}}, c.References())
}
