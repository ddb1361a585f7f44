// Package collation provides locale-aware ordering of names and titles.
package collation

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// Collator orders strings for one locale. It is safe for concurrent use.
type Collator struct {
	mu     sync.Mutex
	locale string
	c      *collate.Collator
	buf    collate.Buffer
}

// New returns a collator for the given BCP 47 locale. An empty locale selects
// DefaultLocale.
func New(locale string) (*Collator, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Collator{
		locale: locale,
		c:      collate.New(tag),
	}, nil
}

// Locale returns the locale the collator was built for.
func (c *Collator) Locale() string {
	return c.locale
}

// Key returns a sort key for s. Keys compare with bytes.Compare in the same
// order Compare gives for the source strings. The key of "" is empty, never
// nil.
func (c *Collator) Key(s string) []byte {
	if s == "" {
		return []byte{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	key := c.c.KeyFromString(&c.buf, s)
	return bytes.Clone(key)
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}
