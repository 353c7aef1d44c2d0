/*
Package ecs stores the components of an entity component system.

Every component type gets its own bucket: a contiguous slice of records sorted by owning entity.
Lookups binary search the bucket, insertions and deletions shift the tail in place, and a full
bucket is reallocated to a multiple of its capacity. Iterating a bucket visits every component of
a type in entity order without chasing pointers.

Component types are plain structs embedding Base:

	type Position struct {
		ecs.Base
		X, Y float64
	}

	c, err := ecs.NewContainer(ecs.Options{})
	e := c.CreateEntity()
	pos, err := ecs.CreateComponent[Position](c, e, ecs.Args{"x": "1", "y": "2"})

Pointers returned by the container are invalidated by the next structural change of
the bucket they point into. Use a Handle to refer to a component across such changes.

The Intersection functions gather the components of every entity that has
all of the given types, index-aligned by owner.

A Container is not safe for concurrent use. Misuse such as creating a component for a dead
entity panics through pkg/assert unless built with the release tag.
*/
package ecs
