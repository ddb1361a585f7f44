package registry

import (
	"slices"
	"strings"
)

// Comparer orders strings, usually by locale collation.
type Comparer interface {
	Compare(a, b string) int
}

// SurnameList is a duplicate-free list of surnames kept in collation order.
type SurnameList struct {
	cmp   Comparer
	names []string
}

// NewSurnameList returns an empty list ordered by cmp.
func NewSurnameList(cmp Comparer) *SurnameList {
	return &SurnameList{cmp: cmp, names: []string{}}
}

func (l *SurnameList) compare(a, b string) int {
	if c := l.cmp.Compare(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func (l *SurnameList) find(name string) (int, bool) {
	return slices.BinarySearchFunc(l.names, name, l.compare)
}

// Add inserts name in order. Empty names and names already present are
// ignored. It reports whether the list changed.
func (l *SurnameList) Add(name string) bool {
	if name == "" {
		return false
	}
	i, found := l.find(name)
	if found {
		return false
	}
	l.names = slices.Insert(l.names, i, name)
	return true
}

// Remove deletes name. It reports whether the list changed.
func (l *SurnameList) Remove(name string) bool {
	i, found := l.find(name)
	if !found {
		return false
	}
	l.names = slices.Delete(l.names, i, i+1)
	return true
}

// Contains reports whether name is in the list.
func (l *SurnameList) Contains(name string) bool {
	_, found := l.find(name)
	return found
}

// Names returns a copy of the list in order.
func (l *SurnameList) Names() []string {
	return slices.Clone(l.names)
}

// Len returns the number of surnames.
func (l *SurnameList) Len() int {
	return len(l.names)
}

// Reset replaces the contents with names, re-sorting and de-duplicating.
func (l *SurnameList) Reset(names []string) {
	l.names = l.names[:0]
	for _, n := range names {
		l.Add(n)
	}
}
