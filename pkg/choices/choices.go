// Package choices turns integer enums into labelled choice sets for forms and
// select widgets.
package choices

import (
	"fmt"
	"slices"
	"strconv"
)

// Choice is one value/label pair.
type Choice struct {
	Value int
	Label string
}

// Set is an ordered list of choices derived from an enum.
type Set struct {
	Name    string
	choices []Choice
}

// Of builds the choices for enum type E. The set is named after name with a
// "Choices" suffix; labels come from fmt.Stringer when E implements it.
//
//	type Status int
//	const (Active Status = iota + 1; Blocked)
//	statuses := choices.Of("Status", Active, Blocked) // StatusChoices
func Of[E ~int](name string, values ...E) Set {
	set := Set{Name: name + "Choices", choices: make([]Choice, 0, len(values))}
	for _, v := range values {
		set.choices = append(set.choices, Choice{Value: int(v), Label: label(v)})
	}
	return set
}

func label[E ~int](v E) string {
	if s, ok := any(v).(fmt.Stringer); ok {
		return s.String()
	}
	return strconv.Itoa(int(v))
}

// Pairs returns the choices in declaration order.
func (s Set) Pairs() []Choice {
	return slices.Clone(s.choices)
}

// Label returns the label of v, if v is one of the choices.
func (s Set) Label(v int) (string, bool) {
	for _, c := range s.choices {
		if c.Value == v {
			return c.Label, true
		}
	}
	return "", false
}

// Contains reports whether v is one of the choices.
func (s Set) Contains(v int) bool {
	_, ok := s.Label(v)
	return ok
}

func (s Set) Len() int { return len(s.choices) }
