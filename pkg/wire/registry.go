// Package wire maps capability interfaces to concrete implementations and
// injects fresh or shared instances into consumer structs.
//
// A Registry is built once in the composition root, frozen, and handed to
// the code that constructs consumers:
//
//	reg := wire.New(wire.WithLogger(logger))
//	_ = wire.Bind[Notifier, *SMTPNotifier](reg)
//	_ = wire.Bind[Clock, systemClock](reg, wire.WithLifetime(wire.Shared))
//	resolver := reg.Freeze()
//
//	type Signup struct {
//		Notifier Notifier `wire:""`
//		Audit    Auditor  `wire:"optional"`
//	}
//	newSignup := wire.AutoWire[Signup](resolver)
//	s, err := newSignup()
//
// Bindings are not checked against the interface when they are registered; a
// concrete type that does not implement it fails when first resolved.
package wire

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// Lifetime decides whether a binding yields a new instance per resolution.
type Lifetime uint8

const (
	// Transient builds a new instance every time the capability is resolved.
	Transient Lifetime = iota
	// Shared builds one instance per registry on first resolution.
	Shared
)

func (l Lifetime) String() string {
	if l == Shared {
		return "shared"
	}
	return "transient"
}

// Observer is notified about resolutions, typically to feed metrics.
type Observer interface {
	Resolved(iface string)
	Unresolved(iface string)
}

// Resolver is the read-only view of a registry used at construction sites.
type Resolver interface {
	Resolve(iface reflect.Type) (any, error)
	Has(iface reflect.Type) bool
	Inject(target any) error
}

// Option configures a single binding.
type Option func(*binding)

// WithLifetime sets the binding lifetime. The default is Transient.
func WithLifetime(l Lifetime) Option {
	return func(b *binding) { b.lifetime = l }
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) { r.observer = o }
}

// Registry maps interface types to concrete types. Wire calls and lookups
// may run concurrently; last write for an interface wins.
type Registry struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]*binding
	frozen   bool
	logger   *slog.Logger
	observer Observer
}

type binding struct {
	iface    reflect.Type
	concrete reflect.Type
	factory  func() any
	lifetime Lifetime

	once     sync.Once
	instance any
	err      error
}

// New returns an empty registry.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{bindings: make(map[reflect.Type]*binding)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Wire registers concrete as the implementation of iface. concrete is built
// with its zero value: a pointer type *C yields new(C), any other type C
// yields its zero value, or new(C) when only *C implements iface.
func (r *Registry) Wire(iface, concrete reflect.Type, opts ...Option) error {
	if concrete == nil {
		return fmt.Errorf("%w: nil concrete type for %v", ErrInvalidBinding, iface)
	}
	return r.add(&binding{iface: iface, concrete: concrete}, opts)
}

// Bind is the typed form of Wire.
func Bind[I, C any](r *Registry, opts ...Option) error {
	return r.Wire(reflect.TypeFor[I](), reflect.TypeFor[C](), opts...)
}

// BindFactory registers fn as the constructor for I.
func BindFactory[I any](r *Registry, fn func() I, opts ...Option) error {
	iface := reflect.TypeFor[I]()
	if fn == nil {
		return fmt.Errorf("%w: nil factory for %v", ErrInvalidBinding, iface)
	}
	return r.add(&binding{iface: iface, factory: func() any { return fn() }}, opts)
}

func (r *Registry) add(b *binding, opts []Option) error {
	if b.iface == nil || b.iface.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %v is not an interface type", ErrInvalidBinding, b.iface)
	}
	for _, opt := range opts {
		opt(b)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.bindings[b.iface] = b
	r.logger.Debug("capability wired",
		"interface", b.iface.String(),
		"concrete", b.concreteName(),
		"lifetime", b.lifetime.String(),
	)
	return nil
}

// Freeze rejects further Wire calls and returns the read-only view.
func (r *Registry) Freeze() Resolver {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
	return r
}

// Has reports whether iface has a binding.
func (r *Registry) Has(iface reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[iface]
	return ok
}

// Bindings lists the wired interfaces as "iface -> concrete (lifetime)".
func (r *Registry) Bindings() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b.iface.String()+" -> "+b.concreteName()+" ("+b.lifetime.String()+")")
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Resolve returns an implementation of iface.
func (r *Registry) Resolve(iface reflect.Type) (any, error) {
	r.mu.RLock()
	b, ok := r.bindings[iface]
	r.mu.RUnlock()
	if !ok {
		r.observeUnresolved(iface)
		return nil, UnresolvedError{Interface: typeName(iface)}
	}

	var (
		v   any
		err error
	)
	if b.lifetime == Shared {
		b.once.Do(func() { b.instance, b.err = b.build() })
		v, err = b.instance, b.err
	} else {
		v, err = b.build()
	}
	if err != nil {
		return nil, err
	}
	if r.observer != nil {
		r.observer.Resolved(iface.String())
	}
	return v, nil
}

func (r *Registry) observeUnresolved(iface reflect.Type) {
	if r.observer != nil {
		r.observer.Unresolved(typeName(iface))
	}
}

// Resolve is the typed form of Registry.Resolve.
func Resolve[I any](r Resolver) (I, error) {
	var zero I
	v, err := r.Resolve(reflect.TypeFor[I]())
	if err != nil {
		return zero, err
	}
	out, ok := v.(I)
	if !ok {
		return zero, WrongTypeError{Interface: typeName(reflect.TypeFor[I]()), Concrete: fmt.Sprintf("%T", v)}
	}
	return out, nil
}

// MustResolve resolves I or panics. Intended for composition roots.
func MustResolve[I any](r Resolver) I {
	v, err := Resolve[I](r)
	if err != nil {
		panic(err)
	}
	return v
}

func (b *binding) build() (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			err = fmt.Errorf("%w: %v: %v", ErrFactoryPanic, b.iface, rec)
		}
	}()

	var rv reflect.Value
	if b.factory != nil {
		out := b.factory()
		if out == nil {
			return nil, WrongTypeError{Interface: b.iface.String(), Concrete: "<nil>"}
		}
		rv = reflect.ValueOf(out)
	} else if b.concrete.Kind() == reflect.Interface {
		// The zero value of an interface type is nil: nothing to construct.
		return nil, WrongTypeError{Interface: b.iface.String(), Concrete: b.concrete.String()}
	} else if b.concrete.Kind() == reflect.Pointer {
		rv = reflect.New(b.concrete.Elem())
	} else {
		rv = reflect.New(b.concrete).Elem()
		if !b.concrete.Implements(b.iface) {
			rv = rv.Addr()
		}
	}

	if !rv.Type().Implements(b.iface) {
		return nil, WrongTypeError{Interface: b.iface.String(), Concrete: rv.Type().String()}
	}
	return rv.Interface(), nil
}

func (b *binding) concreteName() string {
	if b.factory != nil {
		return "factory"
	}
	return b.concrete.String()
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
