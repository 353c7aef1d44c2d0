package ecs

import (
	"github.com/argus-labs/component-container/pkg/assert"
	"github.com/rotisserie/eris"
)

// CreateComponent constructs a zero T owned by owner in its type's bucket and returns a pointer to
// it. If args is non-empty and T implements Initializer, Init is called on the new record; if Init
// fails the record is removed again and the error is returned.
//
// The owner must exist and must not already have a T. The returned pointer is only valid until the
// next structural change of T's bucket.
func CreateComponent[T any, PT Record[T]](c *Container, owner Entity, args Args) (*T, error) {
	c.checkOpen()
	assert.That(c.entities.exists(owner), "cannot create component: entity %d does not exist", owner)

	info := infoOf[T, PT]()
	b := bucketOf[T, PT](c, info)
	_, exists := b.find(owner)
	assert.That(!exists, "cannot create component: entity %d already has a %s component", owner, info.name)

	c.reserve(b)
	handle := c.handles.issue(info.id, owner)
	row := b.insert(owner, handle)
	c.entities.mark(owner, info.id)

	record := b.at(row)
	if len(args) == 0 {
		return (*T)(record), nil
	}

	initializer, ok := any(record).(Initializer)
	if !ok {
		c.log.Warn().
			Str("type", info.name).
			Uint32("owner", uint32(owner)).
			Msg("component has no initializer, ignoring args")
		return (*T)(record), nil
	}

	if err := initializer.Init(args); err != nil {
		c.removeAt(b, row)
		return nil, eris.Wrapf(err, "failed to initialize %s component of entity %d", info.name, owner)
	}
	return (*T)(record), nil
}

// GetComponent returns owner's T. It returns false if owner has no T, including when T's bucket
// was never allocated.
func GetComponent[T any, PT Record[T]](c *Container, owner Entity) (*T, bool) {
	c.checkOpen()

	b := bucketOf[T, PT](c, infoOf[T, PT]())
	if !b.allocated() {
		return nil, false
	}
	row, ok := b.find(owner)
	if !ok {
		return nil, false
	}
	return (*T)(b.at(row)), true
}

// ComponentExist reports whether owner has a T.
func ComponentExist[T any, PT Record[T]](c *Container, owner Entity) bool {
	_, ok := GetComponent[T, PT](c, owner)
	return ok
}

// DeleteComponent destroys owner's T and compacts it out of the bucket. Deleting a component the
// owner doesn't have is logged and otherwise ignored. The owner must exist.
func DeleteComponent[T any, PT Record[T]](c *Container, owner Entity) {
	c.checkOpen()
	assert.That(c.entities.exists(owner), "cannot delete component: entity %d does not exist", owner)

	info := infoOf[T, PT]()
	b := bucketOf[T, PT](c, info)
	if !b.allocated() {
		c.log.Warn().
			Str("type", info.name).
			Uint32("owner", uint32(owner)).
			Msg("tried to delete component, but container doesn't exist")
		return
	}

	row, ok := b.find(owner)
	if !ok {
		c.log.Warn().
			Str("type", info.name).
			Uint32("owner", uint32(owner)).
			Msg("tried to delete component, but component not in container")
		return
	}
	c.removeAt(b, row)
}

// GetByHandle returns the T referenced by h. It returns false if the handle was released or refers
// to a component of another type.
func GetByHandle[T any, PT Record[T]](c *Container, h Handle) (*T, bool) {
	c.checkOpen()

	ref, ok := c.handles.resolve(h)
	if !ok {
		return nil, false
	}
	info := infoOf[T, PT]()
	if ref.typ != info.id {
		return nil, false
	}

	b := bucketOf[T, PT](c, info)
	row, ok := b.find(ref.owner)
	assert.That(ok, "handle %d refers to entity %d but its %s component is missing", h, ref.owner, info.name)
	return (*T)(b.at(row)), true
}

// BucketStats describes the storage of one component type.
type BucketStats struct {
	TypeID    TypeID
	Name      string
	Len       int
	Capacity  int
	ElemSize  uintptr
	Growths   int  // Reallocations after the initial allocation
	Allocated bool // False until the first component of the type is created
}

// Stats returns the storage statistics of T's bucket.
func Stats[T any, PT Record[T]](c *Container) BucketStats {
	info := infoOf[T, PT]()
	b := bucketOf[T, PT](c, info)
	return BucketStats{
		TypeID:    info.id,
		Name:      info.name,
		Len:       b.len(),
		Capacity:  b.capacity(),
		ElemSize:  b.elemSize(),
		Growths:   b.growths(),
		Allocated: b.allocated(),
	}
}

// bucketOf returns T's concrete bucket, creating the unallocated bucket on first use.
func bucketOf[T any, PT Record[T]](c *Container, info *typeInfo) *bucket[T, PT] {
	b, ok := c.bucketFor(info).(*bucket[T, PT])
	assert.That(ok, "bucket %d does not hold %s components", info.id, info.name)
	return b
}
