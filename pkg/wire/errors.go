package wire

import (
	"errors"
	"strconv"
)

var (
	// ErrUnresolved is matched by UnresolvedError: a capability was requested
	// but never wired.
	ErrUnresolved = errors.New("wire: unresolved capability")

	// ErrFrozen is returned by Wire after Freeze.
	ErrFrozen = errors.New("wire: registry is frozen")

	// ErrInvalidBinding is matched by bindings that cannot be registered or
	// whose concrete type turns out not to satisfy the interface.
	ErrInvalidBinding = errors.New("wire: invalid binding")

	// ErrInvalidTarget is returned by Inject for anything but a non-nil
	// pointer to a struct with well-formed wire tags.
	ErrInvalidTarget = errors.New("wire: invalid injection target")

	// ErrFactoryPanic is returned if a factory or constructor panics.
	ErrFactoryPanic = errors.New("wire: panic while constructing capability")
)

// UnresolvedError names the interface that has no binding.
type UnresolvedError struct{ Interface string }

func (e UnresolvedError) Error() string {
	// Example: wire: capability "store.Repository" was never wired
	return "wire: capability " + strconv.Quote(e.Interface) + " was never wired"
}

func (e UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

// WrongTypeError reports a concrete type that does not implement the
// interface it was wired to. It surfaces at resolution, not at Wire time.
type WrongTypeError struct {
	Interface string
	Concrete  string
}

func (e WrongTypeError) Error() string {
	return "wire: " + e.Concrete + " does not implement " + strconv.Quote(e.Interface)
}

func (e WrongTypeError) Is(target error) bool { return target == ErrInvalidBinding }

// FieldError attaches the consumer field to an injection failure.
type FieldError struct {
	Consumer string
	Field    string
	Err      error
}

func (e FieldError) Error() string {
	return "wire: " + e.Consumer + "." + e.Field + ": " + e.Err.Error()
}

func (e FieldError) Unwrap() error { return e.Err }
