package model

import "strings"

// Gender values stored on Person.
const (
	GenderFemale  = 0
	GenderMale    = 1
	GenderUnknown = 2
)

// Person is an individual.
type Person struct {
	Base
	Gender         int         `json:"gender"`
	PrimaryName    Name        `json:"primary_name"`
	AlternateNames []Name      `json:"alternate_names,omitempty"`
	EventRefs      []EventRef  `json:"event_refs,omitempty"`
	Families       []string    `json:"families,omitempty"`
	ParentFamilies []string    `json:"parent_families,omitempty"`
	Media          []MediaRef  `json:"media,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty"`
	URLs           []URL       `json:"urls,omitempty"`
	Associations   []PersonRef `json:"associations,omitempty"`
	Citations      []string    `json:"citations,omitempty"`
	Notes          []string    `json:"notes,omitempty"`
}

func (*Person) Kind() Kind { return KindPerson }

// PrimarySurname returns the first surname of the primary name.
func (p *Person) PrimarySurname() string {
	return p.PrimaryName.PrimarySurname()
}

// GivenName returns the first name of the primary name.
func (p *Person) GivenName() string {
	return p.PrimaryName.First
}

func (p *Person) References() []Ref {
	s := refSet{}
	s.base(&p.Base)
	s.names(p.PrimaryName)
	s.names(p.AlternateNames...)
	s.eventRefs(p.EventRefs)
	s.add(KindFamily, p.Families...)
	s.add(KindFamily, p.ParentFamilies...)
	s.mediaRefs(p.Media)
	s.attributes(p.Attributes)
	for _, a := range p.Associations {
		s.add(KindPerson, a.Handle)
		s.add(KindCitation, a.Citations...)
		s.add(KindNote, a.Notes...)
	}
	s.add(KindCitation, p.Citations...)
	s.add(KindNote, p.Notes...)
	return s.sorted()
}

// Family groups parents and children.
type Family struct {
	Base
	Father     string      `json:"father,omitempty"`
	Mother     string      `json:"mother,omitempty"`
	Children   []ChildRef  `json:"children,omitempty"`
	Type       TypeValue   `json:"type"`
	EventRefs  []EventRef  `json:"event_refs,omitempty"`
	Media      []MediaRef  `json:"media,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Citations  []string    `json:"citations,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

func (*Family) Kind() Kind { return KindFamily }

func (f *Family) References() []Ref {
	s := refSet{}
	s.base(&f.Base)
	s.add(KindPerson, f.Father, f.Mother)
	for _, c := range f.Children {
		s.add(KindPerson, c.Handle)
		s.add(KindCitation, c.Citations...)
		s.add(KindNote, c.Notes...)
	}
	s.eventRefs(f.EventRefs)
	s.mediaRefs(f.Media)
	s.attributes(f.Attributes)
	s.add(KindCitation, f.Citations...)
	s.add(KindNote, f.Notes...)
	return s.sorted()
}

// Event is something that happened at a date and place.
type Event struct {
	Base
	Type        TypeValue   `json:"type"`
	Date        string      `json:"date,omitempty"`
	Description string      `json:"description,omitempty"`
	Place       string      `json:"place,omitempty"`
	Media       []MediaRef  `json:"media,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Citations   []string    `json:"citations,omitempty"`
	Notes       []string    `json:"notes,omitempty"`
}

func (*Event) Kind() Kind { return KindEvent }

func (e *Event) References() []Ref {
	s := refSet{}
	s.base(&e.Base)
	s.add(KindPlace, e.Place)
	s.mediaRefs(e.Media)
	s.attributes(e.Attributes)
	s.add(KindCitation, e.Citations...)
	s.add(KindNote, e.Notes...)
	return s.sorted()
}

// Place is a location, optionally enclosed by larger places.
type Place struct {
	Base
	Name       string     `json:"name,omitempty"`
	Type       TypeValue  `json:"type"`
	EnclosedBy []string   `json:"enclosed_by,omitempty"`
	URLs       []URL      `json:"urls,omitempty"`
	Media      []MediaRef `json:"media,omitempty"`
	Citations  []string   `json:"citations,omitempty"`
	Notes      []string   `json:"notes,omitempty"`
}

func (*Place) Kind() Kind { return KindPlace }

func (p *Place) References() []Ref {
	s := refSet{}
	s.base(&p.Base)
	s.add(KindPlace, p.EnclosedBy...)
	s.mediaRefs(p.Media)
	s.add(KindCitation, p.Citations...)
	s.add(KindNote, p.Notes...)
	return s.sorted()
}

// Source is a document or other origin of information.
type Source struct {
	Base
	Title      string      `json:"title,omitempty"`
	Author     string      `json:"author,omitempty"`
	RepoRefs   []RepoRef   `json:"repo_refs,omitempty"`
	Media      []MediaRef  `json:"media,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

func (*Source) Kind() Kind { return KindSource }

func (src *Source) References() []Ref {
	s := refSet{}
	s.base(&src.Base)
	for _, r := range src.RepoRefs {
		s.add(KindRepository, r.Handle)
		s.add(KindNote, r.Notes...)
	}
	s.mediaRefs(src.Media)
	s.attributes(src.Attributes)
	s.add(KindNote, src.Notes...)
	return s.sorted()
}

// Citation points into a source.
type Citation struct {
	Base
	Page       string      `json:"page,omitempty"`
	Source     string      `json:"source,omitempty"`
	Confidence int         `json:"confidence,omitempty"`
	Media      []MediaRef  `json:"media,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

func (*Citation) Kind() Kind { return KindCitation }

func (c *Citation) References() []Ref {
	s := refSet{}
	s.base(&c.Base)
	s.add(KindSource, c.Source)
	s.mediaRefs(c.Media)
	s.attributes(c.Attributes)
	s.add(KindNote, c.Notes...)
	return s.sorted()
}

// Repository holds sources.
type Repository struct {
	Base
	Name  string    `json:"name,omitempty"`
	Type  TypeValue `json:"type"`
	URLs  []URL     `json:"urls,omitempty"`
	Notes []string  `json:"notes,omitempty"`
}

func (*Repository) Kind() Kind { return KindRepository }

func (r *Repository) References() []Ref {
	s := refSet{}
	s.base(&r.Base)
	s.add(KindNote, r.Notes...)
	return s.sorted()
}

// Note is free text.
type Note struct {
	Base
	Text string    `json:"text,omitempty"`
	Type TypeValue `json:"type"`
}

func (*Note) Kind() Kind { return KindNote }

func (n *Note) References() []Ref {
	s := refSet{}
	s.base(&n.Base)
	return s.sorted()
}

// Media is an external file such as a scan or photo.
type Media struct {
	Base
	Path        string      `json:"path,omitempty"`
	MIME        string      `json:"mime,omitempty"`
	Description string      `json:"description,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Citations   []string    `json:"citations,omitempty"`
	Notes       []string    `json:"notes,omitempty"`
}

func (*Media) Kind() Kind { return KindMedia }

func (m *Media) References() []Ref {
	s := refSet{}
	s.base(&m.Base)
	s.attributes(m.Attributes)
	s.add(KindCitation, m.Citations...)
	s.add(KindNote, m.Notes...)
	return s.sorted()
}

// Tag is a label attached to other records. Tags have no human ID.
type Tag struct {
	Base
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

func (*Tag) Kind() Kind { return KindTag }

func (t *Tag) References() []Ref {
	return []Ref{}
}

// New returns an empty record of the given kind, or nil for an invalid kind.
func New(k Kind) Record {
	switch k {
	case KindPerson:
		return &Person{}
	case KindFamily:
		return &Family{}
	case KindSource:
		return &Source{}
	case KindEvent:
		return &Event{}
	case KindMedia:
		return &Media{}
	case KindPlace:
		return &Place{}
	case KindRepository:
		return &Repository{}
	case KindNote:
		return &Note{}
	case KindTag:
		return &Tag{}
	case KindCitation:
		return &Citation{}
	}
	return nil
}

// HasHumanID reports whether records of this kind carry a human ID.
func (k Kind) HasHumanID() bool {
	return k.Valid() && k != KindTag
}

// OrderText returns the text a record's sort key is collated from.
// Kinds without a natural ordering return "".
func OrderText(r Record) string {
	switch v := r.(type) {
	case *Person:
		var parts []string
		for _, s := range v.PrimaryName.Surnames {
			if s.Origin.Value == OriginPatronymic || s.Origin.Value == OriginMatronymic {
				continue
			}
			parts = append(parts, s.Surname)
		}
		return strings.Join(parts, " ")
	case *Place:
		return v.Type.String() + ", " + v.Name
	case *Source:
		return v.Title
	case *Citation:
		return v.Page
	case *Media:
		return v.Description
	case *Tag:
		return v.Name
	}
	return ""
}
