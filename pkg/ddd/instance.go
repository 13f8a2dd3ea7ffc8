package ddd

import (
	"fmt"
	"strconv"
	"strings"
)

// Instance is a value of a dynamic schema. Its attribute set is closed: only
// declared fields can be read or written.
type Instance struct {
	schema   *Schema
	values   []any
	assigned []bool
	sealed   bool
}

// FieldValue is a name/value pair in declaration order.
type FieldValue struct {
	Name  string
	Value any
}

// New constructs an instance from positional arguments in declaration order.
func (s *Schema) New(args ...any) (*Instance, error) {
	if len(args) != len(s.fields) {
		return nil, ArgumentError{
			Type:   s.name,
			Reason: "expected " + strconv.Itoa(len(s.fields)) + " arguments, got " + strconv.Itoa(len(args)),
		}
	}
	inst := s.alloc()
	for i, arg := range args {
		if err := inst.assign(i, arg); err != nil {
			return nil, err
		}
	}
	return s.finish(inst)
}

// NewKw constructs an instance from keyword arguments. Every declared field
// must be present and no undeclared name may appear.
func (s *Schema) NewKw(kw map[string]any) (*Instance, error) {
	if err := s.checkNames(kw); err != nil {
		return nil, err
	}
	inst := s.alloc()
	for i, f := range s.fields {
		v, ok := kw[f.Name]
		if !ok {
			return nil, ArgumentError{Type: s.name, Reason: "missing argument " + strconv.Quote(f.Name)}
		}
		if err := inst.assign(i, v); err != nil {
			return nil, err
		}
	}
	return s.finish(inst)
}

// Make builds an instance directly from a name to value mapping. Unlike NewKw
// it does not require every field; omitted fields stay unassigned. Undeclared
// names are still rejected and validation still runs.
func (s *Schema) Make(values map[string]any) (*Instance, error) {
	if err := s.checkNames(values); err != nil {
		return nil, err
	}
	inst := s.alloc()
	for name, v := range values {
		if err := inst.assign(s.index[name], v); err != nil {
			return nil, err
		}
	}
	return s.finish(inst)
}

func (s *Schema) checkNames(kw map[string]any) error {
	for name := range kw {
		if _, ok := s.index[name]; !ok {
			return AttributeError{Type: s.name, Name: name, Reason: reasonUndeclared}
		}
	}
	return nil
}

func (s *Schema) alloc() *Instance {
	return &Instance{
		schema:   s,
		values:   make([]any, len(s.fields)),
		assigned: make([]bool, len(s.fields)),
	}
}

func (s *Schema) finish(inst *Instance) (*Instance, error) {
	if s.validate != nil {
		if err := s.validate(inst); err != nil {
			s.observeValidationFailed()
			return nil, err
		}
	}
	inst.sealed = true
	s.observeConstructed()
	return inst, nil
}

func (i *Instance) assign(idx int, v any) error {
	f := i.schema.fields[idx]
	if !f.accepts(v) {
		return ArgumentError{
			Type:   i.schema.name,
			Reason: fmt.Sprintf("field %q expects %s, got %T", f.Name, f.typeName(), v),
		}
	}
	i.values[idx] = v
	i.assigned[idx] = true
	return nil
}

// Schema returns the declaration the instance was built from.
func (i *Instance) Schema() *Schema { return i.schema }

// Get reads a declared field.
func (i *Instance) Get(name string) (any, error) {
	idx, ok := i.schema.index[name]
	if !ok {
		return nil, AttributeError{Type: i.schema.name, Name: name, Reason: reasonUndeclared}
	}
	if !i.assigned[idx] {
		return nil, AttributeError{Type: i.schema.name, Name: name, Reason: reasonUnset}
	}
	return i.values[idx], nil
}

// MustGet reads a declared field and panics on AttributeError.
func (i *Instance) MustGet(name string) any {
	v, err := i.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes a declared field. Constant fields can only be written while the
// instance is being constructed.
func (i *Instance) Set(name string, v any) error {
	idx, ok := i.schema.index[name]
	if !ok {
		return AttributeError{Type: i.schema.name, Name: name, Reason: reasonUndeclared}
	}
	if i.sealed && i.schema.fields[idx].Role == RoleConstant {
		return AttributeError{Type: i.schema.name, Name: name, Reason: reasonConstant}
	}
	return i.assign(idx, v)
}

// Identity returns the value of the identity field.
func (i *Instance) Identity() (any, error) {
	if i.schema.identity < 0 {
		return nil, NoIdentityError{Type: i.schema.name}
	}
	return i.values[i.schema.identity], nil
}

// Values returns the assigned fields in declaration order.
func (i *Instance) Values() []FieldValue {
	out := make([]FieldValue, 0, len(i.values))
	for idx, f := range i.schema.fields {
		if i.assigned[idx] {
			out = append(out, FieldValue{Name: f.Name, Value: i.values[idx]})
		}
	}
	return out
}

// Clone returns a shallow copy: later Set calls on either instance do not
// affect the other. Nested values are shared.
func (i *Instance) Clone() *Instance {
	return &Instance{
		schema:   i.schema,
		values:   append([]any(nil), i.values...),
		assigned: append([]bool(nil), i.assigned...),
		sealed:   i.sealed,
	}
}

// Map returns the assigned fields keyed by name.
func (i *Instance) Map() map[string]any {
	out := make(map[string]any, len(i.values))
	for _, fv := range i.Values() {
		out[fv.Name] = fv.Value
	}
	return out
}

// String renders the instance, e.g. Customer<id=1, name="alice">.
func (i *Instance) String() string {
	var b strings.Builder
	b.WriteString(i.schema.name)
	b.WriteByte('<')
	for n, fv := range i.Values() {
		if n > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fv.Name)
		b.WriteByte('=')
		b.WriteString(repr(fv.Value))
	}
	b.WriteByte('>')
	return b.String()
}

func repr(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
