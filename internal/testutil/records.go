package testutil

import "github.com/roach88/lineage/internal/model"

// Person builds a person with one primary surname. Empty surname leaves the
// name without surnames.
func Person(given, surname string, gender int) *model.Person {
	p := &model.Person{Gender: gender}
	p.PrimaryName.First = given
	if surname != "" {
		p.PrimaryName.Surnames = []model.Surname{{Surname: surname, Primary: true}}
	}
	return p
}

// Family builds a family of two parents and children, all by handle.
func Family(father, mother string, children ...string) *model.Family {
	f := &model.Family{Father: father, Mother: mother}
	for _, c := range children {
		f.Children = append(f.Children, model.ChildRef{Handle: c})
	}
	return f
}

// Event builds an event of a built-in or custom type.
func Event(typ model.TypeValue, date, place string) *model.Event {
	return &model.Event{Type: typ, Date: date, Place: place}
}

// Note builds a note.
func Note(text string) *model.Note {
	return &model.Note{Text: text}
}

// Source builds a source.
func Source(title string) *model.Source {
	return &model.Source{Title: title}
}

// Citation builds a citation of source.
func Citation(source, page string) *model.Citation {
	return &model.Citation{Source: source, Page: page}
}

// Place builds a place.
func Place(name string, typ model.TypeValue, enclosedBy ...string) *model.Place {
	return &model.Place{Name: name, Type: typ, EnclosedBy: enclosedBy}
}

// Tag builds a tag.
func Tag(name string) *model.Tag {
	return &model.Tag{Name: name}
}
