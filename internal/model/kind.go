package model

import (
	"fmt"
	"strings"
)

// Kind identifies one of the fixed record categories.
type Kind int

const (
	KindPerson Kind = iota
	KindFamily
	KindSource
	KindEvent
	KindMedia
	KindPlace
	KindRepository
	KindNote
	KindTag
	KindCitation
)

// KindCount is the number of record kinds. Arrays indexed by Kind use it.
const KindCount = int(KindCitation) + 1

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindPerson, KindFamily, KindSource, KindEvent, KindMedia,
	KindPlace, KindRepository, KindNote, KindTag, KindCitation,
}

var kindNames = [KindCount]string{
	KindPerson:     "Person",
	KindFamily:     "Family",
	KindSource:     "Source",
	KindEvent:      "Event",
	KindMedia:      "Media",
	KindPlace:      "Place",
	KindRepository: "Repository",
	KindNote:       "Note",
	KindTag:        "Tag",
	KindCitation:   "Citation",
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindPerson && k <= KindCitation
}

// String returns the class-style name, e.g. "Person".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Table returns the lower-case name used for the SQL table and for signals.
func (k Kind) Table() string {
	return strings.ToLower(k.String())
}

// Signal returns the prefix of event signals for this kind ("person", "media").
func (k Kind) Signal() string {
	return k.Table()
}

// ParseKind resolves a kind from its name, ignoring case.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(name, kindNames[k]) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown record kind %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
