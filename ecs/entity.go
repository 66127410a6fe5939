package ecs

import "fmt"

// Entity packs a slot id in the low 32 bits and the slot generation in the
// high 32 bits. Destroying an entity bumps the generation so stale handles
// stop resolving.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

// String renders the entity as id.generation.
func (e Entity) String() string {
	return fmt.Sprintf("%d.%d", e.id(), e.generation())
}

// Valid reports whether e refers to an allocated slot. The zero Entity is never valid.
func (e Entity) Valid() bool {
	return e.id() > 0
}
