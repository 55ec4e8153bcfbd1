package graph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Route names the branch a question is answered on.
type Route string

const (
	RouteWeather Route = "weather"
	RoutePDF     Route = "pdf"
)

func (r Route) Valid() bool {
	return r == RouteWeather || r == RoutePDF
}

var (
	ErrUnknownRoute    = errors.New("unknown route")
	ErrFieldAlreadySet = errors.New("field already set")
	ErrOutOfOrder      = errors.New("field set out of order")
)

// State is the record of a single run. Every field is written at most once,
// in the order route, context, answer.
type State struct {
	RunID    uuid.UUID
	question string
	route    *Route
	context  *string
	answer   *string
}

func NewState(question string) *State {
	return &State{RunID: uuid.New(), question: question}
}

func (s *State) Question() string { return s.question }

func (s *State) Route() (Route, bool) {
	if s.route == nil {
		return "", false
	}
	return *s.route, true
}

func (s *State) Context() (string, bool) {
	if s.context == nil {
		return "", false
	}
	return *s.context, true
}

func (s *State) Answer() (string, bool) {
	if s.answer == nil {
		return "", false
	}
	return *s.answer, true
}

func (s *State) SetRoute(r Route) error {
	if s.route != nil {
		return fmt.Errorf("route: %w", ErrFieldAlreadySet)
	}
	s.route = &r
	return nil
}

func (s *State) SetContext(c string) error {
	switch {
	case s.context != nil:
		return fmt.Errorf("context: %w", ErrFieldAlreadySet)
	case s.route == nil || s.answer != nil:
		return fmt.Errorf("context: %w", ErrOutOfOrder)
	}
	s.context = &c
	return nil
}

func (s *State) SetAnswer(a string) error {
	switch {
	case s.answer != nil:
		return fmt.Errorf("answer: %w", ErrFieldAlreadySet)
	case s.route == nil:
		return fmt.Errorf("answer: %w", ErrOutOfOrder)
	}
	s.answer = &a
	return nil
}

// Display is what a caller shows the user: the answer, or the context when
// no answer was produced.
func (s *State) Display() string {
	if s.answer != nil {
		return *s.answer
	}
	if s.context != nil {
		return *s.context
	}
	return ""
}

type stateJSON struct {
	RunID    uuid.UUID `json:"run_id"`
	Question string    `json:"question"`
	Route    *Route    `json:"route,omitempty"`
	Context  *string   `json:"context,omitempty"`
	Answer   *string   `json:"answer,omitempty"`
}

func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		RunID:    s.RunID,
		Question: s.question,
		Route:    s.route,
		Context:  s.context,
		Answer:   s.answer,
	})
}
