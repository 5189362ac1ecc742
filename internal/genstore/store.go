// Package genstore implements a generational-index store: a dense-ish array
// of values addressed by stable handles that remain detectably invalid once
// their slot is reused, instead of dangling silently.
package genstore

import "fmt"

// ID is a generational handle: a slot index paired with the generation the
// slot held when the handle was issued. It packs into a single comparable
// value, as the teacher's dragonfly packs world/entity identity into
// comparable handles, and as the Rust original packs (index, generation)
// into a single 128-bit integer (see generational.rs).
type ID struct {
	index uint32
	gen   uint32
}

// Pack encodes the ID as a single 64-bit integer, matching spec.md's "packed
// into a 64-bit integer" description of BotId.
func (id ID) Pack() uint64 {
	return uint64(id.index)<<32 | uint64(id.gen)
}

// Unpack reconstructs an ID from its packed 64-bit form.
func Unpack(v uint64) ID {
	return ID{index: uint32(v >> 32), gen: uint32(v)}
}

func (id ID) String() string {
	return fmt.Sprintf("ID(%d,%d)", id.index, id.gen)
}

// NotFound enumerates why a lookup by ID failed.
type NotFound uint8

const (
	// Deleted means the slot exists and the generation matches, but it
	// currently holds no value (it has been removed).
	Deleted NotFound = iota
	// OutDated means the slot has been reused since this handle was issued.
	OutDated
	// OutOfBounds means the slot index was never allocated.
	OutOfBounds
)

func (e NotFound) Error() string {
	switch e {
	case Deleted:
		return "genstore: deleted"
	case OutDated:
		return "genstore: outdated"
	case OutOfBounds:
		return "genstore: out of bounds"
	default:
		return "genstore: not found"
	}
}

// Store is a vector of optional values plus parallel generation counters and
// a FIFO free-list of vacated slots. The zero Store is ready to use.
type Store[V any] struct {
	vals []*V
	gens []uint32
	free []uint32
	len  int
}

// Insert places value into the store, reusing the oldest freed slot if one
// exists, and returns its handle.
func (s *Store[V]) Insert(value V) ID {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[0]
		s.free = s.free[1:]
		v := value
		s.vals[index] = &v
	} else {
		index = uint32(len(s.vals))
		v := value
		s.vals = append(s.vals, &v)
		s.gens = append(s.gens, 0)
	}
	s.len++
	return ID{index: index, gen: s.gens[index]}
}

// Remove takes the value out of the store, bumping the slot's generation so
// that id and any copy of it become detectably stale.
func (s *Store[V]) Remove(id ID) (V, error) {
	var zero V
	idx, err := s.check(id)
	if err != nil {
		return zero, err
	}
	v := *s.vals[idx]
	s.vals[idx] = nil
	s.gens[idx]++
	s.free = append(s.free, idx)
	s.len--
	return v, nil
}

// Get returns a copy of the value addressed by id.
func (s *Store[V]) Get(id ID) (V, error) {
	var zero V
	idx, err := s.check(id)
	if err != nil {
		return zero, err
	}
	return *s.vals[idx], nil
}

// GetPtr returns a pointer to the value addressed by id, live for in-place
// mutation. The pointer is invalidated by a subsequent Remove of the same
// id.
func (s *Store[V]) GetPtr(id ID) (*V, error) {
	idx, err := s.check(id)
	if err != nil {
		return nil, err
	}
	return s.vals[idx], nil
}

// Exists reports whether id currently addresses a live value.
func (s *Store[V]) Exists(id ID) bool {
	_, err := s.check(id)
	return err == nil
}

// Len returns the number of live values.
func (s *Store[V]) Len() int { return s.len }

func (s *Store[V]) check(id ID) (uint32, error) {
	if int(id.index) >= len(s.gens) {
		return 0, OutOfBounds
	}
	if id.gen != s.gens[id.index] {
		return 0, OutDated
	}
	if s.vals[id.index] == nil {
		return 0, Deleted
	}
	return id.index, nil
}
