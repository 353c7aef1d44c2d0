package ecs

// handleRef is what a handle resolves to. The record itself is found again by binary search on
// every access, so the reference never goes stale when the bucket grows or compacts.
type handleRef struct {
	typ   TypeID
	owner Entity
}

type handleTable struct {
	next Handle
	refs map[Handle]handleRef
}

func newHandleTable() handleTable {
	return handleTable{
		next: 1,
		refs: make(map[Handle]handleRef),
	}
}

func (h *handleTable) issue(typ TypeID, owner Entity) Handle {
	handle := h.next
	h.next++
	h.refs[handle] = handleRef{typ: typ, owner: owner}
	return handle
}

func (h *handleTable) release(handle Handle) {
	delete(h.refs, handle)
}

func (h *handleTable) resolve(handle Handle) (handleRef, bool) {
	ref, ok := h.refs[handle]
	return ref, ok
}
