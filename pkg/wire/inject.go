package wire

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

const tagName = "wire"

type injectPoint struct {
	index    []int
	name     string
	iface    reflect.Type
	optional bool
}

type plan struct {
	points []injectPoint
	err    error
}

var plans sync.Map // reflect.Type -> *plan

// Inject fills every field tagged `wire:""` on the struct pointed to by
// target. Fields tagged `wire:"optional"` are left untouched when their
// interface has no binding.
func (r *Registry) Inject(target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected non-nil pointer to struct, got %T", ErrInvalidTarget, target)
	}

	p := planFor(rv.Elem().Type())
	if p.err != nil {
		return p.err
	}

	elem := rv.Elem()
	consumer := elem.Type().String()
	for _, pt := range p.points {
		v, err := r.Resolve(pt.iface)
		if err != nil {
			if pt.optional && errors.Is(err, ErrUnresolved) {
				continue
			}
			return FieldError{Consumer: consumer, Field: pt.name, Err: err}
		}
		elem.FieldByIndex(pt.index).Set(reflect.ValueOf(v))
	}
	return nil
}

// AutoWire returns a constructor for T that resolves its tagged fields each
// time it is called. Missing bindings are reported by the constructor, not by
// AutoWire.
func AutoWire[T any](r Resolver) func() (*T, error) {
	return func() (*T, error) {
		out := new(T)
		if err := r.Inject(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func planFor(t reflect.Type) *plan {
	if cached, ok := plans.Load(t); ok {
		return cached.(*plan)
	}
	p := &plan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup(tagName)
		if !ok {
			continue
		}
		if !sf.IsExported() {
			p.err = fmt.Errorf("%w: %s.%s is unexported", ErrInvalidTarget, t, sf.Name)
			break
		}
		if sf.Type.Kind() != reflect.Interface {
			p.err = fmt.Errorf("%w: %s.%s has non-interface type %s", ErrInvalidTarget, t, sf.Name, sf.Type)
			break
		}
		switch tag {
		case "", "optional":
		default:
			p.err = fmt.Errorf("%w: %s.%s has unknown wire option %q", ErrInvalidTarget, t, sf.Name, tag)
		}
		if p.err != nil {
			break
		}
		p.points = append(p.points, injectPoint{
			index:    sf.Index,
			name:     sf.Name,
			iface:    sf.Type,
			optional: tag == "optional",
		})
	}
	actual, _ := plans.LoadOrStore(t, p)
	return actual.(*plan)
}
