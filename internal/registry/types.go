package registry

import (
	"maps"
	"slices"

	"github.com/roach88/lineage/internal/model"
)

// TypeSets records user-defined type names per model.TypeSet.
type TypeSets struct {
	sets [model.TypeSetCount]map[string]struct{}
}

// NewTypeSets returns empty sets.
func NewTypeSets() *TypeSets {
	t := &TypeSets{}
	for i := range t.sets {
		t.sets[i] = map[string]struct{}{}
	}
	return t
}

func (t *TypeSets) valid(set model.TypeSet) bool {
	return set >= 0 && int(set) < model.TypeSetCount
}

// Add unions the custom type names into their sets.
func (t *TypeSets) Add(types ...model.CustomType) {
	for _, ct := range types {
		if t.valid(ct.Set) && ct.Name != "" {
			t.sets[ct.Set][ct.Name] = struct{}{}
		}
	}
}

// Contains reports whether name was recorded in set.
func (t *TypeSets) Contains(set model.TypeSet, name string) bool {
	if !t.valid(set) {
		return false
	}
	_, ok := t.sets[set][name]
	return ok
}

// Names returns the names in set, sorted.
func (t *TypeSets) Names(set model.TypeSet) []string {
	if !t.valid(set) {
		return []string{}
	}
	return slices.Sorted(maps.Keys(t.sets[set]))
}

// Reset replaces the contents of one set.
func (t *TypeSets) Reset(set model.TypeSet, names []string) {
	if !t.valid(set) {
		return
	}
	t.sets[set] = make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			t.sets[set][n] = struct{}{}
		}
	}
}

// Clear empties every set.
func (t *TypeSets) Clear() {
	for i := range t.sets {
		t.sets[i] = map[string]struct{}{}
	}
}
