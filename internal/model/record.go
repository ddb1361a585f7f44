package model

import (
	"slices"
	"strconv"
	"strings"
)

// Record is implemented by the ten record kinds.
type Record interface {
	// Kind returns the record's category.
	Kind() Kind

	// Meta returns the shared identity fields. The pointer aliases the record.
	Meta() *Base

	// References returns every (kind, handle) pair reachable from the record,
	// including through embedded sub-objects. The result is de-duplicated
	// and sorted by kind, then handle.
	References() []Ref
}

// Base carries the fields every record has.
type Base struct {
	// Handle is the immutable, globally unique identity of the record.
	Handle string `json:"handle,omitempty"`

	// ID is the human-facing identifier, unique within the kind.
	ID string `json:"id,omitempty"`

	// Tags holds handles of Tag records.
	Tags []string `json:"tags,omitempty"`

	Private bool `json:"private,omitempty"`
}

// Meta implements Record.
func (b *Base) Meta() *Base {
	return b
}

// Ref points at another record.
type Ref struct {
	Kind   Kind   `json:"kind"`
	Handle string `json:"handle"`
}

func (r Ref) String() string {
	return r.Kind.String() + ":" + r.Handle
}

// Custom is the TypeValue.Value marking a user-defined type whose name lives
// in TypeValue.Text.
const Custom = 0

// Unknown is the TypeValue.Value of an unset type.
const Unknown = -1

// TypeValue is an enumerated type that can also hold a free-form custom name.
type TypeValue struct {
	Value int    `json:"value"`
	Text  string `json:"text,omitempty"`
}

// CustomType returns a TypeValue holding a user-defined name.
func CustomType(name string) TypeValue {
	return TypeValue{Value: Custom, Text: name}
}

// IsCustom reports whether the value is user-defined.
func (t TypeValue) IsCustom() bool {
	return t.Value == Custom
}

func (t TypeValue) String() string {
	if t.IsCustom() || t.Text != "" {
		return t.Text
	}
	return strconv.Itoa(t.Value)
}

// Surname origin values that do not take part in ordering.
const (
	OriginPatronymic = 4
	OriginMatronymic = 5
)

// Surname is one component of a family name.
type Surname struct {
	Surname string    `json:"surname,omitempty"`
	Prefix  string    `json:"prefix,omitempty"`
	Primary bool      `json:"primary,omitempty"`
	Origin  TypeValue `json:"origin"`
}

// Name is a personal name.
type Name struct {
	First     string    `json:"first,omitempty"`
	Surnames  []Surname `json:"surnames,omitempty"`
	Title     string    `json:"title,omitempty"`
	Type      TypeValue `json:"type"`
	Citations []string  `json:"citations,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
}

// PrimarySurname returns the first surname, or "" when there is none.
func (n Name) PrimarySurname() string {
	if len(n.Surnames) == 0 {
		return ""
	}
	return n.Surnames[0].Surname
}

// Attribute is a typed key/value pair.
type Attribute struct {
	Type      TypeValue `json:"type"`
	Value     string    `json:"value,omitempty"`
	Citations []string  `json:"citations,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
}

// EventRef links a person or family to an event.
type EventRef struct {
	Handle     string      `json:"handle"`
	Role       TypeValue   `json:"role"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

// MediaRef links a record to a media object.
type MediaRef struct {
	Handle     string      `json:"handle"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Citations  []string    `json:"citations,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

// ChildRef links a family to a child.
type ChildRef struct {
	Handle    string    `json:"handle"`
	FatherRel TypeValue `json:"father_rel"`
	MotherRel TypeValue `json:"mother_rel"`
	Citations []string  `json:"citations,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
}

// RepoRef links a source to a repository.
type RepoRef struct {
	Handle     string    `json:"handle"`
	CallNumber string    `json:"call_number,omitempty"`
	MediaType  TypeValue `json:"media_type"`
	Notes      []string  `json:"notes,omitempty"`
}

// PersonRef is an association between two people.
type PersonRef struct {
	Handle    string   `json:"handle"`
	Relation  string   `json:"relation,omitempty"`
	Citations []string `json:"citations,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}

// URL is a web or mail link.
type URL struct {
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Type        TypeValue `json:"type"`
}

// refSet accumulates references without duplicates.
type refSet map[Ref]struct{}

func (s refSet) add(kind Kind, handles ...string) {
	for _, h := range handles {
		if h != "" {
			s[Ref{Kind: kind, Handle: h}] = struct{}{}
		}
	}
}

func (s refSet) base(b *Base) {
	s.add(KindTag, b.Tags...)
}

func (s refSet) attributes(attrs []Attribute) {
	for _, a := range attrs {
		s.add(KindCitation, a.Citations...)
		s.add(KindNote, a.Notes...)
	}
}

func (s refSet) mediaRefs(refs []MediaRef) {
	for _, m := range refs {
		s.add(KindMedia, m.Handle)
		s.attributes(m.Attributes)
		s.add(KindCitation, m.Citations...)
		s.add(KindNote, m.Notes...)
	}
}

func (s refSet) eventRefs(refs []EventRef) {
	for _, e := range refs {
		s.add(KindEvent, e.Handle)
		s.attributes(e.Attributes)
		s.add(KindNote, e.Notes...)
	}
}

func (s refSet) names(names ...Name) {
	for _, n := range names {
		s.add(KindCitation, n.Citations...)
		s.add(KindNote, n.Notes...)
	}
}

func (s refSet) sorted() []Ref {
	refs := make([]Ref, 0, len(s))
	for r := range s {
		refs = append(refs, r)
	}
	slices.SortFunc(refs, func(a, b Ref) int {
		if a.Kind != b.Kind {
			return int(a.Kind) - int(b.Kind)
		}
		return strings.Compare(a.Handle, b.Handle)
	})
	return refs
}
