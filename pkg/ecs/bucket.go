package ecs

import (
	"github.com/argus-labs/component-container/pkg/assert"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// abstractBucket is the type-erased view of a bucket the container uses for operations that don't
// know the concrete component type: entity deletion, teardown, intersection probes, search, and
// snapshots.
type abstractBucket interface {
	typeID() TypeID
	name() string
	elemSize() uintptr
	len() int
	capacity() int
	allocated() bool
	growths() int

	ownerAt(row int) Entity
	handleAt(row int) Handle
	find(owner Entity) (int, bool)

	reallocate(mem *allocator, capacity int) bool
	remove(row int)
	release(mem *allocator)

	valueAt(row int) any
	encodeAt(row int) ([]byte, error)
	restore(owner Entity, handle Handle, data []byte) error
}

var _ abstractBucket = &bucket[struct{ Base }, *struct{ Base }]{}

// bucket is the contiguous storage of every live component of one type. records has length equal
// to the capacity; the first count entries are live and sorted by strictly ascending owner, the
// rest are zeroed reserve space. A nil records slice means the bucket was never allocated.
//
// Insertions and deletions in the middle shift the tail with copy, which costs O(n) per operation
// but keeps the records dense and sorted for full scans and binary-search lookups.
type bucket[T any, PT Record[T]] struct {
	id       TypeID
	compName string
	size     uintptr
	records  []T
	count    int
	grown    int
}

func newBucket[T any, PT Record[T]](id TypeID, name string, size uintptr) *bucket[T, PT] {
	return &bucket[T, PT]{
		id:       id,
		compName: name,
		size:     size,
	}
}

func (b *bucket[T, PT]) typeID() TypeID { return b.id }
func (b *bucket[T, PT]) name() string { return b.compName }
func (b *bucket[T, PT]) elemSize() uintptr { return b.size }
func (b *bucket[T, PT]) len() int { return b.count }
func (b *bucket[T, PT]) capacity() int { return len(b.records) }
func (b *bucket[T, PT]) allocated() bool { return b.records != nil }
func (b *bucket[T, PT]) growths() int { return b.grown }
func (b *bucket[T, PT]) at(row int) PT { return PT(&b.records[row]) }
func (b *bucket[T, PT]) valueAt(row int) any { return b.records[row] }

func (b *bucket[T, PT]) ownerAt(row int) Entity {
	return b.at(row).Owner()
}

func (b *bucket[T, PT]) handleAt(row int) Handle {
	return b.at(row).Handle()
}

// find binary searches the live range for owner. It returns the row of the record if found, or
// else the row a record with that owner would have to be inserted at.
func (b *bucket[T, PT]) find(owner Entity) (int, bool) {
	lo, hi := 0, b.count
	for lo < hi {
		mid := int(uint(lo+hi) >> 1) //nolint:gosec // lo+hi is non-negative
		if b.at(mid).Owner() < owner {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < b.count && b.at(lo).Owner() == owner
}

// reallocate moves the live records into a buffer with room for capacity records. It reports false
// without touching the bucket if the allocator refuses the request. Pointers into the old buffer
// are stale afterwards.
func (b *bucket[T, PT]) reallocate(mem *allocator, capacity int) bool {
	assert.That(capacity >= b.count, "cannot shrink bucket %s below its live count", b.compName)

	oldBytes, _ := bufferBytes(len(b.records), b.size)
	newBytes, ok := bufferBytes(capacity, b.size)
	if !ok || !mem.resize(oldBytes, newBytes) {
		return false
	}

	records := make([]T, capacity)
	copy(records, b.records[:b.count])
	if b.records != nil {
		b.grown++
	}
	b.records = records
	return true
}

// insert constructs a zero T bound to owner at its sorted position and returns the row. Expects
// the caller to have ensured free capacity and that owner isn't already present.
func (b *bucket[T, PT]) insert(owner Entity, handle Handle) int {
	assert.That(b.count < len(b.records), "bucket %s is full", b.compName)

	row, exists := b.find(owner)
	assert.That(!exists, "entity %d already has a %s component", owner, b.compName)

	if row < b.count {
		copy(b.records[row+1:b.count+1], b.records[row:b.count])
	}

	var zero T
	b.records[row] = zero
	b.at(row).bind(owner, handle)
	b.count++
	return row
}

// destroy runs the record's Destroy hook, if any.
func (b *bucket[T, PT]) destroy(row int) {
	if d, ok := any(b.at(row)).(Destroyer); ok {
		d.Destroy()
	}
}

// remove destroys the record at row and closes the gap by shifting the tail left, which keeps the
// records sorted without re-sorting.
func (b *bucket[T, PT]) remove(row int) {
	assert.That(row < b.count, "tried to remove component that doesn't exist")

	b.destroy(row)
	copy(b.records[row:b.count-1], b.records[row+1:b.count])

	var zero T
	b.records[b.count-1] = zero
	b.count--
}

// release destroys every live record exactly once and frees the buffer.
func (b *bucket[T, PT]) release(mem *allocator) {
	for row := range b.count {
		b.destroy(row)
	}
	bytes, _ := bufferBytes(len(b.records), b.size)
	mem.release(bytes)

	b.records = nil
	b.count = 0
}

// encodeAt serializes the component data of a record. Base has no exported fields so owner and
// handle are not part of the payload.
func (b *bucket[T, PT]) encodeAt(row int) ([]byte, error) {
	data, err := json.Marshal(b.records[row])
	if err != nil {
		return nil, eris.Wrapf(err, "failed to serialize %s component of entity %d", b.compName, b.ownerAt(row))
	}
	return data, nil
}

// restore appends a deserialized record at the end of the live range. Expects the caller to have
// ensured free capacity and that owner sorts after every live record.
func (b *bucket[T, PT]) restore(owner Entity, handle Handle, data []byte) error {
	assert.That(b.count < len(b.records), "bucket %s is full", b.compName)
	assert.That(b.count == 0 || b.ownerAt(b.count-1) < owner, "restored records must be sorted by owner")

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return eris.Wrapf(err, "failed to deserialize %s component of entity %d", b.compName, owner)
	}

	b.records[b.count] = value
	b.at(b.count).bind(owner, handle)
	b.count++
	return nil
}
