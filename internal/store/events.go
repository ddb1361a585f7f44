package store

import (
	"fmt"

	"github.com/roach88/lineage/internal/model"
)

// Action is what happened to the records an Event names.
type Action string

const (
	ActionAdd     Action = "add"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRebuild Action = "rebuild"

	// ActionHomePerson is emitted when the default person changes. Its
	// Kind is always KindPerson.
	ActionHomePerson Action = "home-person-changed"
)

// Event tells subscribers that records changed.
type Event struct {
	Kind    model.Kind `json:"kind"`
	Action  Action     `json:"action"`
	Handles []string   `json:"handles,omitempty"`
}

// Signal renders the event name, e.g. "person-add" or "family-rebuild".
func (e Event) Signal() string {
	if e.Action == ActionHomePerson {
		return string(ActionHomePerson)
	}
	return e.Kind.Signal() + "-" + string(e.Action)
}

// EventSink receives events synchronously after each commit step.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Emit(Event) {}

// emit delivers e, logging and swallowing a panicking sink.
func (s *Store) emit(e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event sink panicked",
				"signal", e.Signal(),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	s.logger.Debug("emit", "signal", e.Signal(), "handles", len(e.Handles))
	s.sink.Emit(e)
}
