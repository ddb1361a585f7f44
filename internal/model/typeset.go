package model

// TypeSet names one of the registries of user-defined type strings.
type TypeSet int

const (
	EventNames TypeSet = iota
	FamilyAttributes
	IndividualAttributes
	SourceAttributes
	ChildRefTypes
	FamilyRelTypes
	EventRoleNames
	NameTypes
	OriginTypes
	RepositoryTypes
	NoteTypes
	SourceMediaTypes
	URLTypes
	MediaAttributes
	EventAttributes
	PlaceTypes
)

// TypeSetCount is the number of type registries.
const TypeSetCount = int(PlaceTypes) + 1

// TypeSets lists every registry in declaration order.
var TypeSets = []TypeSet{
	EventNames, FamilyAttributes, IndividualAttributes, SourceAttributes,
	ChildRefTypes, FamilyRelTypes, EventRoleNames, NameTypes, OriginTypes,
	RepositoryTypes, NoteTypes, SourceMediaTypes, URLTypes, MediaAttributes,
	EventAttributes, PlaceTypes,
}

var typeSetKeys = [TypeSetCount]string{
	EventNames:           "event_names",
	FamilyAttributes:     "fattr_names",
	IndividualAttributes: "pattr_names",
	SourceAttributes:     "sattr_names",
	ChildRefTypes:        "child_refs",
	FamilyRelTypes:       "family_rels",
	EventRoleNames:       "event_roles",
	NameTypes:            "name_types",
	OriginTypes:          "origin_types",
	RepositoryTypes:      "repo_types",
	NoteTypes:            "note_types",
	SourceMediaTypes:     "sm_types",
	URLTypes:             "url_types",
	MediaAttributes:      "mattr_names",
	EventAttributes:      "eattr_names",
	PlaceTypes:           "place_types",
}

// Key returns the metadata key the registry is persisted under.
func (s TypeSet) Key() string {
	if s < 0 || int(s) >= TypeSetCount {
		return ""
	}
	return typeSetKeys[s]
}

func (s TypeSet) String() string {
	return s.Key()
}

// CustomType is a user-defined type name found in a record.
type CustomType struct {
	Set  TypeSet
	Name string
}

type customCollector []CustomType

func (c *customCollector) add(set TypeSet, t TypeValue) {
	if t.IsCustom() && t.Text != "" {
		*c = append(*c, CustomType{Set: set, Name: t.Text})
	}
}

func (c *customCollector) attributes(set TypeSet, attrs []Attribute) {
	for _, a := range attrs {
		c.add(set, a.Type)
	}
}

func (c *customCollector) media(refs []MediaRef) {
	for _, m := range refs {
		c.attributes(MediaAttributes, m.Attributes)
	}
}

func (c *customCollector) eventRefs(refs []EventRef) {
	for _, e := range refs {
		c.add(EventRoleNames, e.Role)
	}
}

func (c *customCollector) urls(urls []URL) {
	for _, u := range urls {
		c.add(URLTypes, u.Type)
	}
}

// CustomTypes returns the user-defined type names a record carries, grouped
// by the registry each belongs to. Duplicates are possible.
func CustomTypes(r Record) []CustomType {
	var c customCollector
	switch v := r.(type) {
	case *Person:
		c.attributes(IndividualAttributes, v.Attributes)
		c.eventRefs(v.EventRefs)
		for _, n := range append([]Name{v.PrimaryName}, v.AlternateNames...) {
			c.add(NameTypes, n.Type)
			for _, s := range n.Surnames {
				c.add(OriginTypes, s.Origin)
			}
		}
		c.urls(v.URLs)
		c.media(v.Media)
	case *Family:
		c.attributes(FamilyAttributes, v.Attributes)
		for _, ch := range v.Children {
			c.add(ChildRefTypes, ch.FatherRel)
			c.add(ChildRefTypes, ch.MotherRel)
		}
		c.eventRefs(v.EventRefs)
		c.add(FamilyRelTypes, v.Type)
		c.media(v.Media)
	case *Event:
		c.attributes(EventAttributes, v.Attributes)
		c.add(EventNames, v.Type)
		c.media(v.Media)
	case *Place:
		c.add(PlaceTypes, v.Type)
		c.urls(v.URLs)
		c.media(v.Media)
	case *Source:
		for _, r := range v.RepoRefs {
			c.add(SourceMediaTypes, r.MediaType)
		}
		c.attributes(SourceAttributes, v.Attributes)
		c.media(v.Media)
	case *Citation:
		c.attributes(SourceAttributes, v.Attributes)
		c.media(v.Media)
	case *Repository:
		c.add(RepositoryTypes, v.Type)
		c.urls(v.URLs)
	case *Note:
		c.add(NoteTypes, v.Type)
	case *Media:
		c.attributes(MediaAttributes, v.Attributes)
	}
	return c
}
