package ddd

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Equaler is implemented by values with their own equality, such as *Instance.
type Equaler interface {
	Equal(other any) bool
}

// Hasher is implemented by values with their own hash. Hash must agree with
// Equal: equal values return equal hashes.
type Hasher interface {
	Hash() uint64
}

// maxHashDepth bounds recursion through self-referencing values.
const maxHashDepth = 32

// Equal reports whether a and b are equal under the rules of their types:
// Equaler first, then typed schemas registered by Define, then a structural
// walk that applies the same rules to every nested element. It visits values
// exactly as Hash does.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalValue(reflect.ValueOf(a), reflect.ValueOf(b), 0)
}

// Hash returns a hash of v consistent with Equal.
func Hash(v any) uint64 {
	d := xxhash.New()
	writeValue(d, reflect.ValueOf(v), 0)
	return d.Sum64()
}

// Equal implements Equaler. Value objects compare every field; entities with
// EntitySupport compare their identity; other entities compare by reference.
func (i *Instance) Equal(other any) bool {
	o, ok := other.(*Instance)
	if !ok || i == nil || o == nil {
		return ok && i == nil && o == nil
	}
	if i == o {
		return true
	}
	if i.schema != o.schema {
		return false
	}
	s := i.schema
	if s.kind == KindEntity {
		if !s.entitySupport {
			return false
		}
		return Equal(i.values[s.identity], o.values[s.identity])
	}
	for idx := range s.fields {
		if i.assigned[idx] != o.assigned[idx] || !Equal(i.values[idx], o.values[idx]) {
			return false
		}
	}
	return true
}

// Hash implements Hasher.
func (i *Instance) Hash() uint64 {
	if i == nil {
		return Hash(nil)
	}
	s := i.schema
	if s.kind == KindEntity {
		if !s.entitySupport {
			return pointerHash(reflect.ValueOf(i).Pointer())
		}
		return Hash(i.values[s.identity])
	}
	d := xxhash.New()
	for idx := range s.fields {
		writeUint(d, Hash(i.values[idx]))
	}
	return d.Sum64()
}

func pointerHash(p uintptr) uint64 {
	d := xxhash.New()
	writeUint(d, uint64(p))
	return d.Sum64()
}

func writeUint(d *xxhash.Digest, u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	_, _ = d.Write(buf[:])
}

func writeValue(d *xxhash.Digest, v reflect.Value, depth int) {
	if !v.IsValid() || depth > maxHashDepth {
		_, _ = d.WriteString("nil")
		return
	}
	if v.CanInterface() {
		if nilable(v) && v.IsNil() {
			_, _ = d.WriteString("nil")
			return
		}
		if h, ok := v.Interface().(Hasher); ok {
			writeUint(d, h.Hash())
			return
		}
		if ti := lookupTyped(v.Type()); ti != nil {
			writeUint(d, ti.hash(v))
			return
		}
	}

	_, _ = d.WriteString(v.Type().String())
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			writeUint(d, 1)
		} else {
			writeUint(d, 0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeUint(d, uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		writeUint(d, v.Uint())
	case reflect.Float32, reflect.Float64:
		writeUint(d, floatBits(v.Float()))
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		writeUint(d, floatBits(real(c)))
		writeUint(d, floatBits(imag(c)))
	case reflect.String:
		_, _ = d.WriteString(v.String())
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			_, _ = d.WriteString("nil")
			return
		}
		writeValue(d, v.Elem(), depth+1)
	case reflect.Struct:
		for n := 0; n < v.NumField(); n++ {
			writeValue(d, v.Field(n), depth+1)
		}
	case reflect.Slice, reflect.Array:
		writeUint(d, uint64(v.Len()))
		for n := 0; n < v.Len(); n++ {
			writeValue(d, v.Index(n), depth+1)
		}
	case reflect.Map:
		// Entries are combined with addition so iteration order does not matter.
		var sum uint64
		iter := v.MapRange()
		for iter.Next() {
			entry := xxhash.New()
			writeValue(entry, iter.Key(), depth+1)
			writeValue(entry, iter.Value(), depth+1)
			sum += entry.Sum64()
		}
		writeUint(d, uint64(v.Len()))
		writeUint(d, sum)
	default:
		if v.IsNil() {
			_, _ = d.WriteString("nil")
			return
		}
		writeUint(d, uint64(v.Pointer()))
	}
}

func equalValue(a, b reflect.Value, depth int) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}
	if depth > maxHashDepth {
		return true
	}
	if a.CanInterface() && b.CanInterface() {
		if nilable(a) && (a.IsNil() || b.IsNil()) {
			return a.IsNil() && b.IsNil()
		}
		if e, ok := a.Interface().(Equaler); ok {
			return e.Equal(b.Interface())
		}
		if ti := lookupTyped(a.Type()); ti != nil {
			return ti.equal(a, b)
		}
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Kind() == reflect.Pointer && a.Pointer() == b.Pointer() {
			return true
		}
		return equalValue(a.Elem(), b.Elem(), depth+1)
	case reflect.Struct:
		for n := 0; n < a.NumField(); n++ {
			if !equalValue(a.Field(n), b.Field(n), depth+1) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if a.Kind() == reflect.Slice && a.IsNil() != b.IsNil() {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		for n := 0; n < a.Len(); n++ {
			if !equalValue(a.Index(n), b.Index(n), depth+1) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			other := b.MapIndex(iter.Key())
			if !other.IsValid() || !equalValue(iter.Value(), other, depth+1) {
				return false
			}
		}
		return true
	default:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return a.Pointer() == b.Pointer()
	}
}

func nilable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func floatBits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}
