// Package ddd builds entities and value objects from a declared field schema.
//
// Two ways to declare a type are supported:
//
//   - Dynamic schemas: an ordered []Field passed to NewEntity or NewValueObject.
//     Construction returns an *Instance whose attribute set is closed to the
//     declared fields.
//   - Typed schemas: Define[T] reads the exported fields of struct T and their
//     `ddd` tags. Construction returns a *T.
//
// Both paths share the same rules:
//
//   - At most one field carries RoleIdentity. Value objects carry none.
//   - Arguments are accepted positionally (declaration order) or by keyword.
//   - The validation hook runs after every field is assigned; if it fails no
//     instance is returned.
//   - Identity() fails with NoIdentityError when no identity field exists.
//
// Equality:
//
//   - Value objects compare structurally over all declared fields.
//   - Entities that opt into EntitySupport compare by identity value only.
//   - Other entities compare by reference.
//
// Hash is consistent with Equal, so entities can be deduplicated with Set.
//
// Example:
//
//	type Customer struct {
//		ddd.EntitySupport
//		ID   int    `ddd:"identity"`
//		Name string
//	}
//
//	var customers = ddd.MustDefine[Customer]()
//
//	a, _ := customers.New(1, "alice")
//	b, _ := customers.NewKw(map[string]any{"ID": 1, "Name": "bob"})
//	customers.Equal(a, b) // true
package ddd
