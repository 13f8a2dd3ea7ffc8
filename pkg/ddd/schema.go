package ddd

import (
	"strings"
)

// Kind distinguishes entities from value objects.
type Kind uint8

const (
	KindEntity Kind = iota
	KindValueObject
)

func (k Kind) String() string {
	if k == KindValueObject {
		return "value object"
	}
	return "entity"
}

// Observer is notified about construction outcomes. Implementations must be
// safe for concurrent use.
type Observer interface {
	Constructed(schema string)
	ValidationFailed(schema string)
}

// Option configures a schema.
type Option func(*config)

type config struct {
	validate      func(*Instance) error
	entitySupport bool
	identity      string
	observer      Observer
}

// WithValidation installs the hook run after all fields of a dynamic schema
// are assigned. Typed schemas use the Validator interface instead.
func WithValidation(fn func(*Instance) error) Option {
	return func(c *config) { c.validate = fn }
}

// WithEntitySupport makes an entity compare and hash by its identity field.
func WithEntitySupport() Option {
	return func(c *config) { c.entitySupport = true }
}

// WithIdentity promotes an already declared field to the identity role.
func WithIdentity(name string) Option {
	return func(c *config) { c.identity = name }
}

// WithObserver reports construction outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// Schema is a validated, immutable type declaration.
type Schema struct {
	name          string
	kind          Kind
	fields        []Field
	index         map[string]int
	identity      int
	validate      func(*Instance) error
	entitySupport bool
	observer      Observer
}

// Constructor builds an instance from positional arguments.
type Constructor func(args ...any) (*Instance, error)

// Build validates the declaration and returns its positional constructor.
func Build(kind Kind, name string, fields []Field, opts ...Option) (Constructor, error) {
	s, err := newSchema(kind, name, fields, opts...)
	if err != nil {
		return nil, err
	}
	return s.New, nil
}

// NewEntity declares an entity type.
func NewEntity(name string, fields []Field, opts ...Option) (*Schema, error) {
	return newSchema(KindEntity, name, fields, opts...)
}

// NewValueObject declares a value object type. Identity fields are rejected.
func NewValueObject(name string, fields []Field, opts ...Option) (*Schema, error) {
	return newSchema(KindValueObject, name, fields, opts...)
}

func newSchema(kind Kind, name string, fields []Field, opts ...Option) (*Schema, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if name == "" {
		return nil, ConfigurationError{Type: "<anonymous>", Reason: "type name is required"}
	}

	s := &Schema{
		name:          name,
		kind:          kind,
		fields:        make([]Field, len(fields)),
		index:         make(map[string]int, len(fields)),
		identity:      -1,
		validate:      cfg.validate,
		entitySupport: cfg.entitySupport,
		observer:      cfg.observer,
	}
	copy(s.fields, fields)

	if cfg.identity != "" {
		found := false
		for i := range s.fields {
			if s.fields[i].Name == cfg.identity {
				s.fields[i].Role = RoleIdentity
				found = true
			}
		}
		if !found {
			return nil, ConfigurationError{Type: name, Field: cfg.identity, Reason: "identity names an undeclared field"}
		}
	}

	for i, f := range s.fields {
		if f.Name == "" {
			return nil, ConfigurationError{Type: name, Reason: "field name is required"}
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, ConfigurationError{Type: name, Field: f.Name, Reason: "duplicate field"}
		}
		s.index[f.Name] = i
		if f.Role != RoleIdentity {
			continue
		}
		if kind == KindValueObject {
			return nil, ConfigurationError{Type: name, Field: f.Name, Reason: "identity is invalid on a value object"}
		}
		if s.identity >= 0 {
			return nil, ConfigurationError{Type: name, Field: f.Name, Reason: "more than one identity field"}
		}
		s.identity = i
	}

	if s.entitySupport {
		if kind == KindValueObject {
			return nil, ConfigurationError{Type: name, Reason: "entity support is invalid on a value object"}
		}
		if s.identity < 0 {
			return nil, ConfigurationError{Type: name, Reason: "entity support requires an identity field"}
		}
	}
	return s, nil
}

func (s *Schema) Name() string { return s.name }

func (s *Schema) Kind() Kind { return s.kind }

// Fields returns a copy of the declared fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// IdentityField returns the identity field, if one is declared.
func (s *Schema) IdentityField() (Field, bool) {
	if s.identity < 0 {
		return Field{}, false
	}
	return s.fields[s.identity], true
}

// EntitySupport reports whether entities of this schema compare by identity.
func (s *Schema) EntitySupport() bool { return s.entitySupport }

// String renders the declaration, e.g. Customer<id=int, name=string>.
func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString(s.name)
	b.WriteByte('<')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.typeName())
	}
	b.WriteByte('>')
	return b.String()
}

func (s *Schema) observeConstructed() {
	if s.observer != nil {
		s.observer.Constructed(s.name)
	}
}

func (s *Schema) observeValidationFailed() {
	if s.observer != nil {
		s.observer.ValidationFailed(s.name)
	}
}
