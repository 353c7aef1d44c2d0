package ecs

import (
	"github.com/goccy/go-json"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// snapshot is the serialized form of a container. Buckets are identified by component name since
// type indexes depend on registration order and are not stable across processes.
type snapshot struct {
	Entities   []bool           `json:"entities"`
	NextHandle Handle           `json:"nextHandle"`
	Buckets    []bucketSnapshot `json:"buckets"`
}

type bucketSnapshot struct {
	Name    string           `json:"name"`
	Records []recordSnapshot `json:"records"`
}

type recordSnapshot struct {
	Owner  Entity          `json:"owner"`
	Handle Handle          `json:"handle"`
	Data   json.RawMessage `json:"data"`
}

// Snapshot serializes the liveness table, the handle counter, and every allocated bucket. Only
// exported component fields are part of the payload.
func (c *Container) Snapshot() ([]byte, error) {
	c.checkOpen()

	snap := snapshot{
		Entities:   append([]bool(nil), c.entities.alive...),
		NextHandle: c.handles.next,
		Buckets:    make([]bucketSnapshot, 0, c.allocated.Count()),
	}

	var err error
	c.allocated.Range(func(id uint32) {
		if err != nil {
			return
		}
		b := c.buckets[id]
		bs := bucketSnapshot{Name: b.name(), Records: make([]recordSnapshot, 0, b.len())}
		for row := range b.len() {
			data, encodeErr := b.encodeAt(row)
			if encodeErr != nil {
				err = encodeErr
				return
			}
			bs.Records = append(bs.Records, recordSnapshot{
				Owner:  b.ownerAt(row),
				Handle: b.handleAt(row),
				Data:   data,
			})
		}
		snap.Buckets = append(snap.Buckets, bs)
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to snapshot container")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal snapshot")
	}
	return data, nil
}

// Restore loads a snapshot produced by Snapshot into a container that hasn't created any entity
// yet. Every component type named in the snapshot must be registered. The container is left
// untouched if the snapshot is rejected. Destroy hooks don't run for records of a rejected
// snapshot since they were never live.
func (c *Container) Restore(data []byte) error {
	c.checkOpen()

	if c.entities.size() > 1 || c.allocated.Count() > 0 {
		return eris.Wrap(ErrContainerNotEmpty, "restore requires a fresh container")
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return eris.Wrap(err, "failed to unmarshal snapshot")
	}

	staged, err := c.stage(&snap)
	if err != nil {
		return err
	}

	*c = *staged
	c.log.Debug().
		Int("entities", c.entities.size()-1).
		Uint64("memory_in_use", c.mem.used).
		Msg("container restored")
	return nil
}

// stage builds a new container from snap, validating it against the container invariants.
func (c *Container) stage(snap *snapshot) (*Container, error) {
	if len(snap.Entities) == 0 || snap.Entities[0] {
		return nil, eris.Wrap(ErrInvalidSnapshot, "null entity must be present and dead")
	}
	if snap.NextHandle == NullHandle {
		return nil, eris.Wrap(ErrInvalidSnapshot, "next handle cannot be null")
	}

	staged := newContainer(c.options, c.log, c.exit)
	staged.entities = entityTable{
		alive:   append([]bool(nil), snap.Entities...),
		members: make([]bitmap.Bitmap, len(snap.Entities)),
	}
	staged.handles.next = snap.NextHandle

	for _, bs := range snap.Buckets {
		info, ok := types.lookup(bs.Name)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownComponent, "component %s", bs.Name)
		}
		if int(info.id) >= len(staged.buckets) {
			return nil, eris.Wrapf(ErrInvalidSnapshot, "component %s exceeds max component types", bs.Name)
		}
		if staged.allocated.Contains(info.id) {
			return nil, eris.Wrapf(ErrInvalidSnapshot, "component %s appears twice", bs.Name)
		}

		b := staged.bucketFor(info)
		capacity := max(staged.options.InitialCapacity, len(bs.Records))
		if !b.reallocate(&staged.mem, capacity) {
			return nil, eris.Wrapf(ErrMemoryLimitExceeded, "component %s needs %d records", bs.Name, capacity)
		}
		staged.allocated.Set(info.id)

		for _, rec := range bs.Records {
			if err := staged.restoreRecord(b, rec); err != nil {
				return nil, err
			}
		}
	}
	return staged, nil
}

func (c *Container) restoreRecord(b abstractBucket, rec recordSnapshot) error {
	if !c.entities.exists(rec.Owner) {
		return eris.Wrapf(ErrInvalidSnapshot, "%s component owned by dead entity %d", b.name(), rec.Owner)
	}
	if n := b.len(); n > 0 && b.ownerAt(n-1) >= rec.Owner {
		return eris.Wrapf(ErrInvalidSnapshot, "%s records are not strictly sorted by owner", b.name())
	}
	if rec.Handle == NullHandle || rec.Handle >= c.handles.next {
		return eris.Wrapf(ErrInvalidSnapshot, "handle %d of entity %d is out of range", rec.Handle, rec.Owner)
	}
	if _, taken := c.handles.resolve(rec.Handle); taken {
		return eris.Wrapf(ErrInvalidSnapshot, "handle %d is used twice", rec.Handle)
	}

	if err := b.restore(rec.Owner, rec.Handle, rec.Data); err != nil {
		return eris.Wrap(ErrInvalidSnapshot, err.Error())
	}
	c.handles.refs[rec.Handle] = handleRef{typ: b.typeID(), owner: rec.Owner}
	c.entities.mark(rec.Owner, b.typeID())
	return nil
}
