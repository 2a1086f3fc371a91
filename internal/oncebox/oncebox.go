// Package oncebox implements OnceBoxSlice: a lock-free, write-once,
// fixed-size array of optional heap cells. Each cell is initialized at
// most once; once any caller observes a non-null cell, every other caller
// observes the same value. The backing array itself is also created
// lazily on first touch, so NodeSet/PrefixSet buckets that are never
// accessed never allocate.
package oncebox

import "sync/atomic"

// Slice is a fixed-size, lazily-backed array of *T cells.
type Slice[T any] struct {
	n     int
	cells atomic.Pointer[[]atomic.Pointer[T]]
}

// New returns a Slice with room for n cells. The backing array is not
// allocated until the first GetOrInit call; Get never allocates.
func New[T any](n int) *Slice[T] {
	return &Slice[T]{n: n}
}

// Len returns the number of cells the slice was sized for.
func (s *Slice[T]) Len() int {
	return s.n
}

func (s *Slice[T]) ensure() []atomic.Pointer[T] {
	if p := s.cells.Load(); p != nil {
		return *p
	}
	fresh := make([]atomic.Pointer[T], s.n)
	if s.cells.CompareAndSwap(nil, &fresh) {
		return fresh
	}
	return *s.cells.Load()
}

// Get returns the cell at index i, or (nil, false) if it has never been
// initialized.
func (s *Slice[T]) Get(i int) (*T, bool) {
	p := s.cells.Load()
	if p == nil {
		return nil, false
	}
	v := (*p)[i].Load()
	return v, v != nil
}

// GetOrInit returns the cell at index i, creating it with f if absent.
// inserted reports whether this call won the race to create it; every
// other concurrent caller observes the winner's value, and their own
// locally-built value (if any) is simply discarded.
func (s *Slice[T]) GetOrInit(i int, f func() *T) (v *T, inserted bool) {
	cells := s.ensure()
	if cur := cells[i].Load(); cur != nil {
		return cur, false
	}
	candidate := f()
	if cells[i].CompareAndSwap(nil, candidate) {
		return candidate, true
	}
	return cells[i].Load(), false
}
