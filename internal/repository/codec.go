// Package repository persists entities built with pkg/ddd.
//
// Entities are stored as JSON documents keyed by schema name and identity.
// Stores live under store/; Service adds logging, tracing, metrics and the
// translation of store errors into coded domain errors.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"neom/pkg/ddd"
)

// Store persists entities. Stores return sentinel.ErrNotFound for missing
// entities.
type Store interface {
	Save(ctx context.Context, entity *ddd.Instance) error
	Find(ctx context.Context, schema *ddd.Schema, identity any) (*ddd.Instance, error)
	Delete(ctx context.Context, schema *ddd.Schema, identity any) error
	Count(ctx context.Context, schema *ddd.Schema) (int, error)
}

// ErrUnsupportedField is returned for fields whose values cannot round-trip
// through a JSON document.
var ErrUnsupportedField = errors.New("field type cannot be stored as a document")

var instanceType = reflect.TypeFor[*ddd.Instance]()

// Encode renders the assigned fields of entity as a JSON object.
func Encode(entity *ddd.Instance) ([]byte, error) {
	for _, f := range entity.Schema().Fields() {
		if f.Type == instanceType {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedField, entity.Schema().Name(), f.Name)
		}
	}
	return json.Marshal(entity.Map())
}

// Decode rebuilds an instance of schema from a document written by Encode.
// Typed fields are decoded into their declared Go type; untyped fields get the
// encoding/json defaults. Validation runs as for any construction.
func Decode(schema *ddd.Schema, data []byte) (*ddd.Instance, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", schema.Name(), err)
	}

	values := make(map[string]any, len(raw))
	for name, msg := range raw {
		f, ok := schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("decode %s document: %w", schema.Name(),
				ddd.AttributeError{Type: schema.Name(), Name: name, Reason: "attribute not declared"})
		}
		v, err := decodeValue(f, msg)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", schema.Name(), name, err)
		}
		values[name] = v
	}
	return schema.Make(values)
}

func decodeValue(f ddd.Field, msg json.RawMessage) (any, error) {
	if f.Type == nil {
		var v any
		err := json.Unmarshal(msg, &v)
		return v, err
	}
	if f.Type == instanceType {
		return nil, ErrUnsupportedField
	}
	ptr := reflect.New(f.Type)
	if err := json.Unmarshal(msg, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// IdentityKey is the storage key of an identity value: its JSON encoding, so
// 1 and int64(1) share a key while 1 and "1" do not. Instance identities
// (value objects) are keyed by schema name and fields.
func IdentityKey(identity any) (string, error) {
	b, err := json.Marshal(keyValue(identity))
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(b), nil
}

func keyValue(v any) any {
	inst, ok := v.(*ddd.Instance)
	if !ok || inst == nil {
		return v
	}
	fields := inst.Map()
	for name, fv := range fields {
		fields[name] = keyValue(fv)
	}
	return map[string]any{"schema": inst.Schema().Name(), "fields": fields}
}
