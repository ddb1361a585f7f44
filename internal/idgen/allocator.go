package idgen

import (
	"context"
	"fmt"
)

// Prober reports whether a human ID is already taken.
type Prober interface {
	Contains(ctx context.Context, id string) (bool, error)
}

// Allocator hands out the lowest free ID at or after its cursor. The cursor
// only moves forward, so IDs freed by deletions are not reused within a
// session.
type Allocator struct {
	template Template
	cursor   int
	probe    Prober
}

// NewAllocator returns an allocator whose cursor starts at 1.
func NewAllocator(t Template, probe Prober) *Allocator {
	return &Allocator{template: t, cursor: 1, probe: probe}
}

// Next returns the first ID not reported taken by the prober and advances
// the cursor past it.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	for {
		id := a.template.Format(a.cursor)
		taken, err := a.probe.Contains(ctx, id)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", id, err)
		}
		a.cursor++
		if !taken {
			return id, nil
		}
	}
}

// Template returns the active template.
func (a *Allocator) Template() Template {
	return a.template
}

// SetTemplate replaces the template. The cursor is kept.
func (a *Allocator) SetTemplate(t Template) {
	a.template = t
}

// Cursor returns the counter value the next probe starts at.
func (a *Allocator) Cursor() int {
	return a.cursor
}
