package testutil

import (
	"fmt"
	"sync"
)

// SequentialHandles generates predictable record handles for tests:
// prefix followed by a zero-padded counter ("H0001", "H0002", ...).
//
// The same scenario run against a fresh SequentialHandles produces the
// same handles, so golden snapshots stay byte-identical.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialHandles struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialHandles creates a generator. An empty prefix becomes "H".
func NewSequentialHandles(prefix string) *SequentialHandles {
	if prefix == "" {
		prefix = "H"
	}
	return &SequentialHandles{prefix: prefix}
}

// Generate returns the next handle.
func (g *SequentialHandles) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s%04d", g.prefix, g.seq)
}

// Current returns how many handles have been generated.
func (g *SequentialHandles) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the counter. The next handle is prefix+"0001".
func (g *SequentialHandles) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
