package greenstripes

import "iter"

// Sequence is a read-only, randomly indexable view over an ordered list
// owned by a loadable object. It always reflects the owner's current
// contents, which only change inside Session.ProcessEvents, so Len, At and
// Slice agree with each other between pump calls.
type Sequence[T any] struct {
	items *[]T
}

func sequenceOf[T any](items *[]T) Sequence[T] {
	return Sequence[T]{items: items}
}

// Len returns the number of elements.
func (s Sequence[T]) Len() int {
	if s.items == nil {
		return 0
	}
	return len(*s.items)
}

// At returns the element at index i. The second result is false when i is
// out of range.
func (s Sequence[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= s.Len() {
		return zero, false
	}
	return (*s.items)[i], true
}

// Slice returns a copy of the elements, built from At over Len.
func (s Sequence[T]) Slice() []T {
	out := make([]T, s.Len())
	for i := range out {
		out[i], _ = s.At(i)
	}
	return out
}

// All iterates over index/element pairs.
func (s Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.Len(); i++ {
			v, _ := s.At(i)
			if !yield(i, v) {
				return
			}
		}
	}
}
