package ecs

import (
	"os"

	"github.com/argus-labs/component-container/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Container stores the components of every entity, one sorted bucket per component type.
//
// A Container is not safe for concurrent use. Pointers returned by CreateComponent, GetComponent,
// Components, and the intersections are only valid until the next insertion, deletion, or growth
// of the bucket they point into. Retain a Handle instead when a reference has to outlive that.
type Container struct {
	entities  entityTable
	buckets   []abstractBucket // Type ID -> bucket, nil until the type is first used
	allocated bitmap.Bitmap    // Type IDs whose bucket currently holds a buffer
	handles   handleTable
	mem       allocator

	options Options
	log     zerolog.Logger
	exit    func(code int) // Terminates the process after a fatal allocation failure
	closed  bool
}

// NewContainer creates a container configured from the environment, with opts taking precedence.
func NewContainer(opts Options) (*Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load container config")
	}

	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid container options")
	}

	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = options.Logger.With().Str("component", "container").Logger()
	}

	if options.GrowFactor < MinGrowFactor {
		logger.Warn().
			Int("grow_factor", options.GrowFactor).
			Int("min_grow_factor", MinGrowFactor).
			Msg("grow factor too small, clamping")
		options.GrowFactor = MinGrowFactor
	}

	return newContainer(options, logger, os.Exit), nil
}

func newContainer(options Options, logger zerolog.Logger, exit func(int)) *Container {
	return &Container{
		entities: newEntityTable(),
		buckets:  make([]abstractBucket, options.MaxComponentTypes),
		handles:  newHandleTable(),
		mem:      allocator{limit: options.MemoryLimit},
		options:  options,
		log:      logger,
		exit:     exit,
	}
}

// CreateEntity returns a new live entity. Ids increase monotonically and are never reused.
func (c *Container) CreateEntity() Entity {
	c.checkOpen()
	return c.entities.create()
}

// EntityExist reports whether e was created and hasn't been deleted.
func (c *Container) EntityExist(e Entity) bool {
	return c.entities.exists(e)
}

// DeleteEntity destroys every component owned by e and marks e dead. e must exist.
func (c *Container) DeleteEntity(e Entity) {
	c.checkOpen()
	assert.That(c.entities.exists(e), "cannot delete entity %d: entity does not exist", e)

	owned := c.entities.types(e)
	owned.Range(func(id uint32) {
		b := c.buckets[id]
		row, ok := b.find(e)
		assert.That(ok, "entity %d is marked as owning %s but it's not in the bucket", e, b.name())
		c.removeAt(b, row)
	})
	c.entities.kill(e)
}

// ComponentTypes returns the type indexes of the components e owns.
func (c *Container) ComponentTypes(e Entity) []TypeID {
	owned := c.entities.types(e)
	ids := make([]TypeID, 0, owned.Count())
	owned.Range(func(id uint32) {
		ids = append(ids, id)
	})
	return ids
}

// HandleExist reports whether h refers to a live component.
func (c *Container) HandleExist(h Handle) bool {
	_, ok := c.handles.resolve(h)
	return ok
}

// MemoryInUse returns the number of bytes reserved by bucket buffers.
func (c *Container) MemoryInUse() uint64 {
	return c.mem.used
}

// Close destroys every live component exactly once and releases all buffers. The container can't
// be used afterwards.
func (c *Container) Close() {
	c.checkOpen()

	c.allocated.Range(func(id uint32) {
		c.buckets[id].release(&c.mem)
	})
	c.allocated.Clear()
	c.handles = newHandleTable()
	c.closed = true
	c.log.Debug().Msg("container closed")
}

func (c *Container) checkOpen() {
	assert.That(!c.closed, "container is closed")
}

// -------------------------------------------------------------------------------------------------
// Bucket lifecycle
// -------------------------------------------------------------------------------------------------

// bucketFor returns the bucket slot of a registered type, creating the unallocated bucket if the
// container hasn't seen the type yet.
func (c *Container) bucketFor(info *typeInfo) abstractBucket {
	assert.That(int(info.id) < len(c.buckets),
		"component %s has type index %d, container only supports %d types", info.name, info.id, len(c.buckets))

	b := c.buckets[info.id]
	if b == nil {
		b = info.factory()
		c.buckets[info.id] = b
	}
	return b
}

// reserve makes sure b has a buffer with room for one more record.
func (c *Container) reserve(b abstractBucket) {
	if !b.allocated() {
		c.allocate(b)
		return
	}
	if b.len() < b.capacity() {
		return
	}
	c.grow(b)
}

// allocate gives an unallocated bucket its first buffer, falling back to a single record.
func (c *Container) allocate(b abstractBucket) {
	capacity := c.options.InitialCapacity
	if !b.reallocate(&c.mem, capacity) {
		c.log.Error().
			Str("type", b.name()).
			Uint32("type_id", b.typeID()).
			Int("capacity", capacity).
			Uint64("elem_size", uint64(b.elemSize())).
			Msg("cannot allocate component container, retrying with capacity 1")

		capacity = 1
		if !b.reallocate(&c.mem, capacity) {
			c.fatal(b, capacity, "cannot create new component container, even for 1 element")
		}
	}

	c.allocated.Set(b.typeID())
	c.log.Info().
		Str("type", b.name()).
		Uint32("type_id", b.typeID()).
		Int("capacity", capacity).
		Uint64("elem_size", uint64(b.elemSize())).
		Msg("component container allocated")
}

// grow enlarges a full bucket by the grow factor, falling back to a single extra record.
func (c *Container) grow(b abstractBucket) {
	current := b.capacity()
	capacity, ok := grownCapacity(current, c.options.GrowFactor)
	if !ok || !b.reallocate(&c.mem, capacity) {
		c.log.Error().
			Str("type", b.name()).
			Uint32("type_id", b.typeID()).
			Int("capacity", capacity).
			Uint64("elem_size", uint64(b.elemSize())).
			Msg("cannot grow component container, retrying with one more element")

		capacity = current + 1
		if !b.reallocate(&c.mem, capacity) {
			c.fatal(b, capacity, "cannot resize component container, even by 1 element")
		}
	}

	c.log.Info().
		Str("type", b.name()).
		Uint32("type_id", b.typeID()).
		Int("capacity", capacity).
		Msg("component container grown")
}

// fatal logs and terminates. Running on without the buffer would break sortedness and leave
// outstanding pointers in an unknown state.
func (c *Container) fatal(b abstractBucket, capacity int, msg string) {
	c.log.WithLevel(zerolog.FatalLevel).
		Str("type", b.name()).
		Uint32("type_id", b.typeID()).
		Int("capacity", capacity).
		Uint64("elem_size", uint64(b.elemSize())).
		Uint64("memory_in_use", c.mem.used).
		Msg(msg)
	c.exit(1)
	panic("unreachable")
}

// removeAt destroys and compacts out the record at row and releases its bookkeeping.
func (c *Container) removeAt(b abstractBucket, row int) {
	owner := b.ownerAt(row)
	handle := b.handleAt(row)

	b.remove(row)
	c.handles.release(handle)
	c.entities.unmark(owner, b.typeID())
}
