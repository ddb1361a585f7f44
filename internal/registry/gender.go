package registry

import (
	"maps"
	"slices"
	"strings"
)

// Gender values, matching the person record.
const (
	Female  = 0
	Male    = 1
	Unknown = 2
)

// GenderCount tallies how often a given name was used for each gender.
type GenderCount struct {
	Female  int `json:"female"`
	Male    int `json:"male"`
	Unknown int `json:"unknown"`
}

func (c GenderCount) zero() bool {
	return c.Female == 0 && c.Male == 0 && c.Unknown == 0
}

// GenderStats maps the first word of a given name to its tallies.
type GenderStats struct {
	stats map[string]GenderCount
}

// NewGenderStats returns empty statistics.
func NewGenderStats() *GenderStats {
	return &GenderStats{stats: map[string]GenderCount{}}
}

// GenderKey returns the key a given name is tallied under: its first word
// with question marks removed.
func GenderKey(given string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(given), " ")
	return strings.ReplaceAll(first, "?", "")
}

func (g *GenderStats) adjust(given string, gender, delta int) {
	key := GenderKey(given)
	if key == "" {
		return
	}
	c := g.stats[key]
	switch gender {
	case Female:
		c.Female = max(c.Female+delta, 0)
	case Male:
		c.Male = max(c.Male+delta, 0)
	default:
		c.Unknown = max(c.Unknown+delta, 0)
	}
	if c.zero() {
		delete(g.stats, key)
		return
	}
	g.stats[key] = c
}

// Count records one person with this given name and gender.
func (g *GenderStats) Count(given string, gender int) {
	g.adjust(given, gender, 1)
}

// Uncount reverses Count. Tallies never go below zero.
func (g *GenderStats) Uncount(given string, gender int) {
	g.adjust(given, gender, -1)
}

// Get returns the tallies for a given name.
func (g *GenderStats) Get(given string) (GenderCount, bool) {
	c, ok := g.stats[GenderKey(given)]
	return c, ok
}

// Guess predicts a gender from a given name. A name seen only with one
// gender and never as unknown gets that gender; otherwise one gender must
// outnumber the other more than two to one.
func (g *GenderStats) Guess(given string) int {
	c, ok := g.Get(given)
	if !ok {
		return Unknown
	}
	if c.Unknown == 0 {
		if c.Male > 0 && c.Female == 0 {
			return Male
		}
		if c.Female > 0 && c.Male == 0 {
			return Female
		}
	}
	if c.Male > 2*c.Female {
		return Male
	}
	if c.Female > 2*c.Male {
		return Female
	}
	return Unknown
}

// Names returns every tallied key in byte order.
func (g *GenderStats) Names() []string {
	return slices.Sorted(maps.Keys(g.stats))
}

// Snapshot returns a copy of the tallies for persistence.
func (g *GenderStats) Snapshot() map[string]GenderCount {
	return maps.Clone(g.stats)
}

// Reset replaces the tallies. Zero entries are dropped.
func (g *GenderStats) Reset(stats map[string]GenderCount) {
	g.stats = make(map[string]GenderCount, len(stats))
	for k, c := range stats {
		if k != "" && !c.zero() {
			g.stats[k] = c
		}
	}
}
