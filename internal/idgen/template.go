// Package idgen allocates human-facing record IDs such as "I0001".
package idgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Template renders a counter as a human ID. It is a literal prefix, one
// printf-style integer conversion and a literal suffix.
type Template struct {
	pattern string
	prefix  string
	suffix  string
	verb    string
}

// Default returns the template used when a configured pattern is unusable:
// prefix followed by a zero-padded four digit counter.
func Default(prefix string) Template {
	t, _ := parse(escape(prefix) + "%04d")
	return t
}

// Parse validates pattern leniently. A pattern with no conversion gets "%d"
// appended. An empty pattern or one whose conversion is malformed yields
// Default(defaultPrefix), and ok is false.
func Parse(pattern, defaultPrefix string) (t Template, ok bool) {
	if pattern == "" {
		return Default(defaultPrefix), false
	}
	t, err := parse(pattern)
	if errors.Is(err, errNoConversion) {
		t, err = parse(pattern + "%d")
	}
	if err != nil {
		return Default(defaultPrefix), false
	}
	return t, true
}

// MustParse is like Parse but panics on a pattern that would be downgraded.
func MustParse(pattern string) Template {
	t, err := parse(pattern)
	if err != nil {
		panic(fmt.Sprintf("idgen: %q: %v", pattern, err))
	}
	return t
}

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	errNoConversion   = parseError("no numeric conversion")
	errBadConversion  = parseError("malformed numeric conversion")
	errTwoConversions = parseError("more than one numeric conversion")
)

func parse(pattern string) (Template, error) {
	var (
		prefix, suffix strings.Builder
		verb           string
		found          bool
	)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			if found {
				suffix.WriteByte(c)
			} else {
				prefix.WriteByte(c)
			}
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '%' {
			if found {
				suffix.WriteByte('%')
			} else {
				prefix.WriteByte('%')
			}
			i++
			continue
		}
		if found {
			return Template{}, errTwoConversions
		}
		j := i + 1
		for j < len(pattern) && strings.IndexByte("0 -", pattern[j]) >= 0 {
			j++
		}
		for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
			j++
		}
		if j >= len(pattern) || strings.IndexByte("diu", pattern[j]) < 0 {
			return Template{}, errBadConversion
		}
		verb = "%" + pattern[i+1:j] + "d"
		found = true
		i = j
	}
	if !found {
		return Template{}, errNoConversion
	}
	return Template{
		pattern: pattern,
		prefix:  prefix.String(),
		suffix:  suffix.String(),
		verb:    verb,
	}, nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// Format renders the n-th ID.
func (t Template) Format(n int) string {
	if t.verb == "" {
		return strconv.Itoa(n)
	}
	return t.prefix + fmt.Sprintf(t.verb, n) + t.suffix
}

// String returns the pattern the template was parsed from.
func (t Template) String() string {
	return t.pattern
}

// Prefix returns the literal text before the counter.
func (t Template) Prefix() string {
	return t.prefix
}

// Counter extracts the counter from an ID rendered by a template with the
// same prefix and suffix, whatever its padding.
func (t Template) Counter(id string) (int, bool) {
	if len(id) < len(t.prefix)+len(t.suffix) ||
		!strings.HasPrefix(id, t.prefix) || !strings.HasSuffix(id, t.suffix) {
		return 0, false
	}
	digits := strings.TrimSpace(id[len(t.prefix) : len(id)-len(t.suffix)])
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Normalize re-renders id in this template's width, so "I12" becomes "I0012"
// under "I%04d". IDs that do not fit the template are returned unchanged.
func (t Template) Normalize(id string) string {
	n, ok := t.Counter(id)
	if !ok {
		return id
	}
	return t.Format(n)
}
