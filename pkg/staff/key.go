package staff

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"neom/pkg/ddd"
)

// Key is an entity key value object. Equality and hashing depend on K only.
type Key[K comparable] struct {
	ddd.ValueObject
	K K `ddd:"constant"`
}

// IntKey is the common integer key.
type IntKey = Key[int]

// KeyOf wraps k.
func KeyOf[K comparable](k K) Key[K] {
	return Key[K]{K: k}
}

// NewUUIDKey returns a random (version 4) key.
func NewUUIDKey() Key[uuid.UUID] {
	return KeyOf(uuid.New())
}

// NewULIDKey returns a lexically sortable key.
func NewULIDKey() Key[ulid.ULID] {
	return KeyOf(ulid.Make())
}

func (k Key[K]) Equal(other any) bool {
	switch o := other.(type) {
	case Key[K]:
		return k.K == o.K
	case *Key[K]:
		return o != nil && k.K == o.K
	}
	return false
}

func (k Key[K]) Hash() uint64 { return ddd.Hash(k.K) }

func (k Key[K]) String() string { return fmt.Sprintf("Key<%v>", k.K) }
