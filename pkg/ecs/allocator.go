package ecs

import "math"

// allocator accounts for the bytes held by bucket buffers. With a non-zero limit, requests that
// would push usage over the limit fail, which is how allocation failure surfaces to the container.
// A zero limit never refuses a request.
type allocator struct {
	limit uint64
	used  uint64
}

// resize moves a reservation from oldBytes to newBytes. Shrinking always succeeds.
func (a *allocator) resize(oldBytes, newBytes uint64) bool {
	if newBytes <= oldBytes {
		a.used -= oldBytes - newBytes
		return true
	}

	delta := newBytes - oldBytes
	if a.limit > 0 && (a.used+delta > a.limit || a.used+delta < a.used) {
		return false
	}
	a.used += delta
	return true
}

func (a *allocator) release(n uint64) {
	a.used -= min(n, a.used)
}

// maxBufferBytes is the largest buffer a bucket may request. The runtime can't allocate anything
// beyond the address space it supports, so larger requests take the allocation failure path.
const maxBufferBytes = min(1<<47, math.MaxInt)

// bufferBytes returns capacity*elemSize, or false if it overflows or exceeds maxBufferBytes.
func bufferBytes(capacity int, elemSize uintptr) (uint64, bool) {
	if capacity < 0 {
		return 0, false
	}
	size := uint64(elemSize)
	if size != 0 && uint64(capacity) > maxBufferBytes/size {
		return 0, false
	}
	return uint64(capacity) * size, true
}

// grownCapacity returns capacity*factor, or false if it doesn't fit in an int.
func grownCapacity(capacity, factor int) (int, bool) {
	if capacity > 0 && factor > math.MaxInt/capacity {
		return 0, false
	}
	return capacity * factor, true
}
