package ecs

import "github.com/rotisserie/eris"

var (
	// ErrArgMissing is returned by the Args accessors when a key is not present.
	ErrArgMissing = eris.New("init argument missing")

	// ErrUnknownComponent is returned when a component name doesn't resolve to a registered type.
	ErrUnknownComponent = eris.New("component type not registered")

	// ErrInvalidSnapshot is returned when snapshot data violates the container invariants.
	ErrInvalidSnapshot = eris.New("invalid snapshot")

	// ErrMemoryLimitExceeded is returned when restored data doesn't fit in the container's memory
	// limit.
	ErrMemoryLimitExceeded = eris.New("memory limit exceeded")

	// ErrContainerNotEmpty is returned when restoring into a container that already holds state.
	ErrContainerNotEmpty = eris.New("container is not empty")
)
