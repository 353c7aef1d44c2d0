package ecs

import (
	"math"

	"github.com/argus-labs/component-container/pkg/assert"
	"github.com/kelindar/bitmap"
)

// Entity is an integer identifier grouping zero or more components.
type Entity uint32

// NullEntity is reserved and is never alive.
const NullEntity Entity = 0

// MaxEntity is the largest entity id the identity table can hand out.
const MaxEntity = math.MaxUint32

// entityTable tracks liveness per entity id. Ids are handed out in increasing order and never
// reused; a deleted id stays dead for the lifetime of the table. Alongside liveness it keeps a
// bitmap of the component types each entity owns so entity deletion only visits the buckets the
// entity participates in.
type entityTable struct {
	alive   []bool
	members []bitmap.Bitmap
}

func newEntityTable() entityTable {
	return entityTable{
		alive:   []bool{false}, // null entity
		members: []bitmap.Bitmap{nil},
	}
}

// create appends a live flag and returns its id.
func (t *entityTable) create() Entity {
	assert.That(uint64(len(t.alive)) <= MaxEntity, "max number of entities exceeded")

	t.alive = append(t.alive, true)
	t.members = append(t.members, nil)
	return Entity(len(t.alive) - 1) //nolint:gosec // bounded by the assert above
}

func (t *entityTable) exists(e Entity) bool {
	return int(e) < len(t.alive) && t.alive[e]
}

// kill flips the liveness flag. Expects the caller to have removed the entity's components.
func (t *entityTable) kill(e Entity) {
	assert.That(t.exists(e), "cannot kill entity %d: entity does not exist", e)
	t.alive[e] = false
	t.members[e] = nil
}

func (t *entityTable) mark(e Entity, id TypeID) {
	t.members[e].Set(id)
}

func (t *entityTable) unmark(e Entity, id TypeID) {
	t.members[e].Remove(id)
}

// types returns a copy of the component types owned by e.
func (t *entityTable) types(e Entity) bitmap.Bitmap {
	if int(e) >= len(t.members) {
		return nil
	}
	return t.members[e].Clone(nil)
}

// size returns the number of ids handed out, including the null entity.
func (t *entityTable) size() int {
	return len(t.alive)
}
