package ddd

import (
	"errors"
	"strconv"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrConfiguration = errors.New("ddd: invalid declaration")
	ErrNoIdentity    = errors.New("ddd: no identity field")
	ErrAttribute     = errors.New("ddd: attribute error")
	ErrArgument      = errors.New("ddd: invalid arguments")
)

// ConfigurationError reports an invalid type declaration. It is returned when
// the schema is built, never during construction.
type ConfigurationError struct {
	Type   string
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	msg := "ddd: " + e.Type + ": " + e.Reason
	if e.Field != "" {
		msg += " (field " + strconv.Quote(e.Field) + ")"
	}
	return msg
}

func (e ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NoIdentityError is returned by Identity on a type without an identity field.
type NoIdentityError struct{ Type string }

func (e NoIdentityError) Error() string {
	return "ddd: " + e.Type + " declares no identity field"
}

func (e NoIdentityError) Is(target error) bool { return target == ErrNoIdentity }

// AttributeError reports access to a name outside the closed attribute set,
// a write to a constant field, or a read of a field that was never assigned.
type AttributeError struct {
	Type   string
	Name   string
	Reason string
}

func (e AttributeError) Error() string {
	return "ddd: " + e.Type + "." + e.Name + ": " + e.Reason
}

func (e AttributeError) Is(target error) bool { return target == ErrAttribute }

// ArgumentError reports a constructor call that does not match the schema.
type ArgumentError struct {
	Type   string
	Reason string
}

func (e ArgumentError) Error() string {
	return "ddd: " + e.Type + ": " + e.Reason
}

func (e ArgumentError) Is(target error) bool { return target == ErrArgument }

const (
	reasonUndeclared = "attribute not declared"
	reasonConstant   = "constant field is read-only after construction"
	reasonUnset      = "attribute was never assigned"
)
