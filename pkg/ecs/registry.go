package ecs

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// TypeID is the dense index assigned to a component type on first use. It addresses the type's
// bucket inside a container.
type TypeID = uint32

// namer is implemented by components that want a stable name independent of their Go type path.
type namer interface {
	Name() string
}

// bucketFactory creates an empty, unallocated bucket for a registered type.
type bucketFactory func() abstractBucket

// typeInfo is the registry entry of a single component type.
type typeInfo struct {
	id      TypeID
	name    string
	typ     reflect.Type
	size    uintptr
	factory bucketFactory
}

// typeRegistry maps component types to their dense ids for the lifetime of the process. Entries are
// created lazily the first time a type is used so nothing depends on package init order.
type typeRegistry struct {
	mu     sync.RWMutex
	nextID TypeID
	byType map[reflect.Type]*typeInfo
	byName map[string]*typeInfo
}

var types typeRegistry //nolint:gochecknoglobals // type ids are process-scoped

// resolve returns the entry for typ, registering it with build if it doesn't exist yet.
func (r *typeRegistry) resolve(typ reflect.Type, build func(id TypeID) *typeInfo) *typeInfo {
	r.mu.RLock()
	info, ok := r.byType[typ]
	r.mu.RUnlock()
	if ok {
		return info
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have registered it between the two locks.
	if info, ok := r.byType[typ]; ok {
		return info
	}
	if r.byType == nil {
		r.byType = make(map[reflect.Type]*typeInfo)
		r.byName = make(map[string]*typeInfo)
	}

	info = build(r.nextID)
	// Enforced in release builds too since Search and Restore resolve types by name.
	if existing, ok := r.byName[info.name]; ok {
		panic(fmt.Sprintf("component name %q is used by both %s and %s", info.name, existing.typ, typ))
	}

	r.byType[typ] = info
	r.byName[info.name] = info
	r.nextID++
	return info
}

// lookup returns the entry registered under name.
func (r *typeRegistry) lookup(name string) (*typeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

// infoOf returns the registry entry for T, registering it on first use.
func infoOf[T any, PT Record[T]]() *typeInfo {
	typ := reflect.TypeFor[T]()
	return types.resolve(typ, func(id TypeID) *typeInfo {
		var zero T
		name := componentName[T, PT](typ)
		size := unsafe.Sizeof(zero)
		return &typeInfo{
			id:   id,
			name: name,
			typ:  typ,
			size: size,
			factory: func() abstractBucket {
				return newBucket[T, PT](id, name, size)
			},
		}
	})
}

// componentName prefers the component's own Name method and falls back to the package-qualified
// Go type name.
func componentName[T any, PT Record[T]](typ reflect.Type) string {
	var zero T
	if n, ok := any(PT(&zero)).(namer); ok {
		return n.Name()
	}
	return typ.String()
}

// TypeIndex returns the dense index of T, assigning the next free index the first time T is seen.
// The index is stable for the lifetime of the process.
func TypeIndex[T any, PT Record[T]]() TypeID {
	return infoOf[T, PT]().id
}

// Register makes T known to the registry by name. Types are registered implicitly on first use;
// Register is only needed before Search or Restore refer to a type that hasn't been used yet.
func Register[T any, PT Record[T]]() TypeID {
	return TypeIndex[T, PT]()
}

// TypeName returns the registered name of T.
func TypeName[T any, PT Record[T]]() string {
	return infoOf[T, PT]().name
}
