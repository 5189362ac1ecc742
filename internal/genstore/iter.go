package genstore

// Iter calls f for each live value in store-index order (the order insert
// assigned slots, stable as long as no insert/remove happens during
// iteration). Iteration stops early if f returns false.
func (s *Store[V]) Iter(f func(id ID, v *V) bool) {
	for idx, v := range s.vals {
		if v == nil {
			continue
		}
		if !f(ID{index: uint32(idx), gen: s.gens[idx]}, v) {
			return
		}
	}
}

// Ids returns the handles of all live values in store-index order.
func (s *Store[V]) Ids() []ID {
	out := make([]ID, 0, s.len)
	s.Iter(func(id ID, _ *V) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Rest is the view of a Store handed to the value at an excluded slot: it
// allows querying or mutating every other live value by id, and refuses
// access to the excluded slot itself. This is the sanctioned way for code
// processing one element of the store to peek at or mutate another element
// of the same store without violating Go's aliasing rules, mirroring the
// split_at_mut pattern used by bulb's generational store in the original
// implementation and by dragonfly's split-borrow entity iteration.
type Rest[V any] struct {
	store   *Store[V]
	exclude uint32
}

// SplitAtMut returns the pointer to the value at id plus a Rest view of
// every other live value in the store.
func (s *Store[V]) SplitAtMut(id ID) (*V, Rest[V], error) {
	idx, err := s.check(id)
	if err != nil {
		var zero Rest[V]
		return nil, zero, err
	}
	return s.vals[idx], Rest[V]{store: s, exclude: idx}, nil
}

// Get returns a pointer to the value at id, or OutOfBounds if id is the
// excluded slot.
func (r Rest[V]) Get(id ID) (*V, error) {
	idx, err := r.store.check(id)
	if err != nil {
		return nil, err
	}
	if idx == r.exclude {
		return nil, OutOfBounds
	}
	return r.store.vals[idx], nil
}
