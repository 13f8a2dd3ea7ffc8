package ddd

// Set holds values deduplicated by Equal, bucketed by Hash. Entities with
// EntitySupport collapse by identity; value objects collapse structurally.
// A Set is not safe for concurrent use.
type Set[T any] struct {
	buckets map[uint64][]T
	n       int
}

// NewSet returns a set holding items.
func NewSet[T any](items ...T) *Set[T] {
	s := &Set[T]{buckets: make(map[uint64][]T)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts v unless an equal value is present. It reports whether v was added.
func (s *Set[T]) Add(v T) bool {
	h := Hash(v)
	for _, existing := range s.buckets[h] {
		if Equal(existing, v) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], v)
	s.n++
	return true
}

// Has reports whether a value equal to v is present.
func (s *Set[T]) Has(v T) bool {
	for _, existing := range s.buckets[Hash(v)] {
		if Equal(existing, v) {
			return true
		}
	}
	return false
}

// Get returns the stored value equal to v.
func (s *Set[T]) Get(v T) (T, bool) {
	for _, existing := range s.buckets[Hash(v)] {
		if Equal(existing, v) {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

// Remove deletes the value equal to v. It reports whether one was present.
func (s *Set[T]) Remove(v T) bool {
	h := Hash(v)
	bucket := s.buckets[h]
	for i, existing := range bucket {
		if !Equal(existing, v) {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(s.buckets, h)
		} else {
			s.buckets[h] = bucket
		}
		s.n--
		return true
	}
	return false
}

func (s *Set[T]) Len() int { return s.n }

// Items returns the stored values in no particular order.
func (s *Set[T]) Items() []T {
	out := make([]T, 0, s.n)
	for _, bucket := range s.buckets {
		out = append(out, bucket...)
	}
	return out
}
