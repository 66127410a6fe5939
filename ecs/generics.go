package ecs

import "github.com/milk9111/propsim/ecs/component"

func Add[T any](w *World, e Entity, handle component.ComponentHandle[T], value *T) error {
	if value == nil {
		return component.ErrNilComponent
	}
	return w.addComponent(e, handle.Kind().ID(), value)
}

func Remove[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.removeComponent(e, handle.Kind().ID())
}

func Has[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.storage(handle.Kind().ID(), false).Has(e)
}

// Get returns the stored pointer so callers mutate components in place.
func Get[T any](w *World, e Entity, handle component.ComponentHandle[T]) (*T, bool) {
	value := w.storage(handle.Kind().ID(), false).Get(e)
	if value == nil {
		return nil, false
	}
	cast, ok := value.(*T)
	return cast, ok
}

// ForEach visits every entity that has the component, in storage order.
func ForEach[T any](w *World, handle component.ComponentHandle[T], fn func(Entity, *T)) {
	set := w.storage(handle.Kind().ID(), false)
	ents := append([]Entity(nil), set.Entities()...)
	for _, e := range ents {
		if v, ok := set.Get(e).(*T); ok {
			fn(e, v)
		}
	}
}
