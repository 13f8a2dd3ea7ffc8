package ddd

import (
	"reflect"
)

// Role tells the builder how a declared field participates in the type.
type Role uint8

const (
	RolePlain Role = iota
	// RoleIdentity marks the single field that carries an entity's identity.
	RoleIdentity
	// RoleConstant fields are assigned at construction and read-only afterwards.
	RoleConstant
)

func (r Role) String() string {
	switch r {
	case RoleIdentity:
		return "identity"
	case RoleConstant:
		return "constant"
	default:
		return "plain"
	}
}

// Field is one declared field of a schema. A nil Type accepts any value.
type Field struct {
	Name string
	Type reflect.Type
	Role Role
}

// Attr declares a plain field of type T.
func Attr[T any](name string) Field {
	return Field{Name: name, Type: reflect.TypeFor[T](), Role: RolePlain}
}

// Identity declares the identity field of an entity, typed T.
func Identity[T any](name string) Field {
	return Field{Name: name, Type: reflect.TypeFor[T](), Role: RoleIdentity}
}

// Constant declares a construction-only field of type T.
func Constant[T any](name string) Field {
	return Field{Name: name, Type: reflect.TypeFor[T](), Role: RoleConstant}
}

// Any declares an untyped plain field.
func Any(name string) Field {
	return Field{Name: name}
}

func (f Field) typeName() string {
	if f.Type == nil {
		return "any"
	}
	return f.Type.String()
}

// accepts reports whether v may be stored in f.
func (f Field) accepts(v any) bool {
	if f.Type == nil {
		return true
	}
	if v == nil {
		return nillable(f.Type)
	}
	return reflect.TypeOf(v).AssignableTo(f.Type)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
