package ddd

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// EntitySupport is embedded in a struct to make Define compare it by identity.
type EntitySupport struct{}

// ValueObject is embedded in a struct to make Define treat it as a value object.
type ValueObject struct{}

// Validator is implemented by typed schemas that check their own invariants.
// Validate runs after every field is assigned.
type Validator interface {
	Validate() error
}

var (
	entitySupportType = reflect.TypeFor[EntitySupport]()
	valueObjectType   = reflect.TypeFor[ValueObject]()
)

// Type is a typed schema over struct T. Declared fields are the exported
// fields of T, including those promoted from embedded structs.
type Type[T any] struct {
	info *typedInfo
}

type typedInfo struct {
	schema *Schema
	rtype  reflect.Type
	paths  [][]int
}

type scan struct {
	kind          Kind
	entitySupport bool
	fields        []Field
	paths         [][]int
}

var (
	scans sync.Map // reflect.Type -> *scan
	typed sync.Map // reflect.Type -> *typedInfo, last Define wins
)

// Define builds a typed schema from the struct tags of T:
//
//	ddd:"identity"   identity field
//	ddd:"constant"   construction-only field
//	ddd:"name=x"     keyword name override
//	ddd:"-"          not a declared field
func Define[T any](opts ...Option) (*Type[T], error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, ConfigurationError{Type: rt.String(), Reason: "typed schemas require a struct type"}
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.validate != nil {
		return nil, ConfigurationError{Type: rt.Name(), Reason: "typed schemas validate through a Validate method"}
	}

	sc, err := scanStruct(rt)
	if err != nil {
		return nil, err
	}
	if sc.entitySupport {
		opts = append(opts, WithEntitySupport())
	}
	schema, err := newSchema(sc.kind, rt.Name(), sc.fields, opts...)
	if err != nil {
		return nil, err
	}

	info := &typedInfo{schema: schema, rtype: rt, paths: sc.paths}
	typed.Store(rt, info)
	return &Type[T]{info: info}, nil
}

// MustDefine is Define for package-level declarations; it panics on error.
func MustDefine[T any](opts ...Option) *Type[T] {
	t, err := Define[T](opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func scanStruct(rt reflect.Type) (*scan, error) {
	if cached, ok := scans.Load(rt); ok {
		return cached.(*scan), nil
	}
	sc := &scan{kind: KindEntity}
	if err := sc.walk(rt, rt, nil); err != nil {
		return nil, err
	}
	scans.Store(rt, sc)
	return sc, nil
}

func (sc *scan) walk(root, rt reflect.Type, prefix []int) error {
	for n := 0; n < rt.NumField(); n++ {
		sf := rt.Field(n)
		path := append(append([]int(nil), prefix...), n)

		if sf.Anonymous {
			switch {
			case sf.Type == entitySupportType:
				sc.entitySupport = true
				continue
			case sf.Type == valueObjectType:
				sc.kind = KindValueObject
				continue
			case sf.Type.Kind() == reflect.Struct && sf.Tag.Get("ddd") != "-":
				if err := sc.walk(root, sf.Type, path); err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		f := Field{Name: sf.Name, Type: sf.Type}
		tag := sf.Tag.Get("ddd")
		if tag == "-" {
			continue
		}
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			switch {
			case part == "":
			case part == "identity":
				f.Role = RoleIdentity
			case part == "constant":
				f.Role = RoleConstant
			case strings.HasPrefix(part, "name="):
				f.Name = strings.TrimPrefix(part, "name=")
			default:
				return ConfigurationError{Type: root.Name(), Field: sf.Name, Reason: "unknown ddd tag option " + strconv.Quote(part)}
			}
		}
		sc.fields = append(sc.fields, f)
		sc.paths = append(sc.paths, path)
	}
	return nil
}

// lookupTyped finds the typed schema for T or *T.
func lookupTyped(rt reflect.Type) *typedInfo {
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil
	}
	if v, ok := typed.Load(rt); ok {
		return v.(*typedInfo)
	}
	return nil
}

// Schema returns the underlying declaration.
func (t *Type[T]) Schema() *Schema { return t.info.schema }

// New constructs a *T from positional arguments in declaration order.
func (t *Type[T]) New(args ...any) (*T, error) {
	s := t.info.schema
	if len(args) != len(s.fields) {
		return nil, ArgumentError{
			Type:   s.name,
			Reason: "expected " + strconv.Itoa(len(s.fields)) + " arguments, got " + strconv.Itoa(len(args)),
		}
	}
	ptr := new(T)
	rv := reflect.ValueOf(ptr).Elem()
	for i, arg := range args {
		if err := t.info.assign(rv, i, arg); err != nil {
			return nil, err
		}
	}
	return t.finish(ptr)
}

// NewKw constructs a *T from keyword arguments; every field is required.
func (t *Type[T]) NewKw(kw map[string]any) (*T, error) {
	s := t.info.schema
	if err := s.checkNames(kw); err != nil {
		return nil, err
	}
	ptr := new(T)
	rv := reflect.ValueOf(ptr).Elem()
	for i, f := range s.fields {
		v, ok := kw[f.Name]
		if !ok {
			return nil, ArgumentError{Type: s.name, Reason: "missing argument " + strconv.Quote(f.Name)}
		}
		if err := t.info.assign(rv, i, v); err != nil {
			return nil, err
		}
	}
	return t.finish(ptr)
}

// Make constructs a *T from a partial mapping; omitted fields keep their zero
// value. Undeclared names are rejected and validation still runs.
func (t *Type[T]) Make(values map[string]any) (*T, error) {
	s := t.info.schema
	if err := s.checkNames(values); err != nil {
		return nil, err
	}
	ptr := new(T)
	rv := reflect.ValueOf(ptr).Elem()
	for name, v := range values {
		if err := t.info.assign(rv, s.index[name], v); err != nil {
			return nil, err
		}
	}
	return t.finish(ptr)
}

func (t *Type[T]) finish(ptr *T) (*T, error) {
	s := t.info.schema
	if v, ok := any(ptr).(Validator); ok {
		if err := v.Validate(); err != nil {
			s.observeValidationFailed()
			return nil, err
		}
	}
	s.observeConstructed()
	return ptr, nil
}

func (ti *typedInfo) assign(rv reflect.Value, idx int, v any) error {
	f := ti.schema.fields[idx]
	if !f.accepts(v) {
		return ArgumentError{
			Type:   ti.schema.name,
			Reason: fmt.Sprintf("field %q expects %s, got %T", f.Name, f.typeName(), v),
		}
	}
	dst := rv.FieldByIndex(ti.paths[idx])
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	dst.Set(reflect.ValueOf(v))
	return nil
}

// Get reads a declared field of obj by keyword name.
func (t *Type[T]) Get(obj *T, name string) (any, error) {
	s := t.info.schema
	idx, ok := s.index[name]
	if !ok {
		return nil, AttributeError{Type: s.name, Name: name, Reason: reasonUndeclared}
	}
	return reflect.ValueOf(obj).Elem().FieldByIndex(t.info.paths[idx]).Interface(), nil
}

// Set writes a declared, non-constant field of obj by keyword name.
func (t *Type[T]) Set(obj *T, name string, v any) error {
	s := t.info.schema
	idx, ok := s.index[name]
	if !ok {
		return AttributeError{Type: s.name, Name: name, Reason: reasonUndeclared}
	}
	if s.fields[idx].Role == RoleConstant {
		return AttributeError{Type: s.name, Name: name, Reason: reasonConstant}
	}
	return t.info.assign(reflect.ValueOf(obj).Elem(), idx, v)
}

// Identity returns the identity field of obj.
func (t *Type[T]) Identity(obj *T) (any, error) {
	s := t.info.schema
	if s.identity < 0 {
		return nil, NoIdentityError{Type: s.name}
	}
	return reflect.ValueOf(obj).Elem().FieldByIndex(t.info.paths[s.identity]).Interface(), nil
}

// Equal compares two instances under the schema's equality rules.
func (t *Type[T]) Equal(a, b *T) bool {
	return t.info.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

// Hash returns a hash of obj consistent with Equal.
func (t *Type[T]) Hash(obj *T) uint64 {
	return t.info.hash(reflect.ValueOf(obj))
}

// String renders obj, e.g. Customer<ID=1, Name="alice">.
func (t *Type[T]) String(obj *T) string {
	s := t.info.schema
	rv := reflect.ValueOf(obj).Elem()
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteByte('<')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(repr(rv.FieldByIndex(t.info.paths[i]).Interface()))
	}
	b.WriteByte('>')
	return b.String()
}

func (ti *typedInfo) byReference() bool {
	return ti.schema.kind == KindEntity && !ti.schema.entitySupport
}

func (ti *typedInfo) equal(a, b reflect.Value) bool {
	if a.Kind() == reflect.Pointer {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if ti.byReference() {
			return a.Pointer() == b.Pointer()
		}
		a, b = a.Elem(), b.Elem()
	}
	s := ti.schema
	if s.kind == KindEntity && s.entitySupport {
		p := ti.paths[s.identity]
		return Equal(a.FieldByIndex(p).Interface(), b.FieldByIndex(p).Interface())
	}
	for _, p := range ti.paths {
		if !Equal(a.FieldByIndex(p).Interface(), b.FieldByIndex(p).Interface()) {
			return false
		}
	}
	return true
}

func (ti *typedInfo) hash(v reflect.Value) uint64 {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return Hash(nil)
		}
		if ti.byReference() {
			return pointerHash(v.Pointer())
		}
		v = v.Elem()
	}
	s := ti.schema
	if s.kind == KindEntity && s.entitySupport {
		return Hash(v.FieldByIndex(ti.paths[s.identity]).Interface())
	}
	d := xxhash.New()
	for _, p := range ti.paths {
		writeUint(d, Hash(v.FieldByIndex(p).Interface()))
	}
	return d.Sum64()
}
