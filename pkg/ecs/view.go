package ecs

import (
	"iter"

	"github.com/argus-labs/component-container/pkg/assert"
)

// View is a read-mostly window over every live T at the time it was taken, in ascending owner
// order. Records may be modified through the view, but the view itself is invalidated by any
// structural change of T's bucket.
type View[T any] struct {
	records []T
	valid   bool
}

// Components returns a view over every live T. The view is invalid if T's bucket was never
// allocated.
func Components[T any, PT Record[T]](c *Container) View[T] {
	c.checkOpen()

	b := bucketOf[T, PT](c, infoOf[T, PT]())
	if !b.allocated() {
		return View[T]{}
	}
	return View[T]{records: b.records[:b.count], valid: true}
}

// Len returns the number of records in the view.
func (v View[T]) Len() int {
	return len(v.records)
}

// Valid reports whether the view is backed by an allocated bucket.
func (v View[T]) Valid() bool {
	return v.valid
}

// At returns the i-th record. Calling At on an invalid view or out of range panics.
func (v View[T]) At(i int) *T {
	assert.That(v.valid, "cannot index into an invalid view")
	assert.That(i >= 0 && i < len(v.records), "view index %d out of range [0, %d)", i, len(v.records))
	return &v.records[i]
}

// All iterates over the records in owner order.
func (v View[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range v.records {
			if !yield(i, &v.records[i]) {
				return
			}
		}
	}
}
