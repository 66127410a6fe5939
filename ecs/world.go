package ecs

import "github.com/milk9111/propsim/ecs/component"

// DefaultTickRate is the fixed update rate when none is configured.
const DefaultTickRate = 60.0

// World owns entities, components, the fixed tick and cooperative tasks.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	tasks    taskList

	tick int
	dt   float64

	physicsWorld *PhysicsWorld
}

// NewWorld creates an empty world stepping at tickRate updates per second.
func NewWorld(tickRate float64) *World {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &World{
		stores: make(map[component.ComponentID]*SparseSet),
		dt:     1 / tickRate,
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes the entity and all of its components.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.live
}

// Tick returns the number of completed updates.
func (w *World) Tick() int {
	if w == nil {
		return 0
	}
	return w.tick
}

// DeltaTime is the fixed step in seconds.
func (w *World) DeltaTime() float64 {
	return w.dt
}

// Advance completes the current tick.
func (w *World) Advance() {
	if w == nil {
		return
	}
	w.tick++
}

// SetPhysicsWorld attaches a physics world to this ECS world.
func (w *World) SetPhysicsWorld(pw *PhysicsWorld) {
	if w == nil {
		return
	}
	w.physicsWorld = pw
}

// PhysicsWorld returns the attached physics world, if any.
func (w *World) PhysicsWorld() *PhysicsWorld {
	if w == nil {
		return nil
	}
	return w.physicsWorld
}

func (w *World) storage(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = &SparseSet{}
		w.stores[id] = s
	}
	return s
}

func (w *World) addComponent(e Entity, id component.ComponentID, value any) error {
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	w.storage(id, true).Set(e, value)
	return nil
}

func (w *World) removeComponent(e Entity, id component.ComponentID) bool {
	return w.storage(id, false).Remove(e)
}
