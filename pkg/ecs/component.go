package ecs

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
)

// Handle is a stable reference to a component. It survives growth and compaction of the bucket the
// component lives in and is released when the component is deleted. Handles are never reused.
type Handle uint64

// NullHandle never refers to a component.
const NullHandle Handle = 0

// Base must be embedded by every component type. It carries the owning entity and the component's
// handle, both bound by the container when the component is constructed.
type Base struct {
	owner  Entity
	handle Handle
}

// Owner returns the entity this component belongs to.
func (b Base) Owner() Entity { return b.owner }

// Handle returns the stable handle of this component.
func (b Base) Handle() Handle { return b.handle }

func (b *Base) bind(owner Entity, handle Handle) {
	b.owner = owner
	b.handle = handle
}

// Component is implemented by any struct embedding Base.
type Component interface {
	Owner() Entity
	Handle() Handle
}

// Record constrains the pointer type of a component. It lets the container construct T in place
// and bind its owner. Callers never spell it out; it is inferred from T.
type Record[T any] interface {
	*T
	Component
	bind(owner Entity, handle Handle)
}

// Initializer is implemented by components that configure themselves from named arguments after
// construction. Init is only called when the arguments are non-empty.
type Initializer interface {
	Init(args Args) error
}

// Destroyer is implemented by components that need to run cleanup before being removed from their
// bucket.
type Destroyer interface {
	Destroy()
}

// Args are the named construction arguments handed to Initializer.Init.
type Args map[string]string

// String returns the raw value for key.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", eris.Wrapf(ErrArgMissing, "key %q", key)
	}
	return v, nil
}

// Float64 parses the value for key as a float64.
func (a Args) Float64(key string) (float64, error) {
	v, err := a.String(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, eris.Wrapf(err, "key %q is not a float", key)
	}
	return f, nil
}

// Int parses the value for key as an int.
func (a Args) Int(key string) (int, error) {
	v, err := a.String(key)
	if err != nil {
		return 0, err
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, eris.Wrapf(err, "key %q is not an int", key)
	}
	return i, nil
}

// Bool parses the value for key as a bool.
func (a Args) Bool(key string) (bool, error) {
	v, err := a.String(key)
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, eris.Wrapf(err, "key %q is not a bool", key)
	}
	return b, nil
}
