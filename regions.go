package xfer

import "iter"

// Regions is the ordered, append-only region store of a command. It is
// filled once from a caller slice and never aliases caller memory.
type Regions[T any] struct {
	items []T
}

// captureRegions copies src into a new store.
func captureRegions[T any](src []T) Regions[T] {
	items := make([]T, len(src))
	copy(items, src)
	return Regions[T]{items: items}
}

// Len returns the number of regions.
func (r *Regions[T]) Len() int { return len(r.items) }

// At returns region i in insertion order.
func (r *Regions[T]) At(i int) T { return r.items[i] }

// All iterates over the regions in insertion order.
func (r *Regions[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range r.items {
			if !yield(i, item) {
				return
			}
		}
	}
}
