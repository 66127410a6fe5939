package system

import "github.com/milk9111/propsim/ecs"

// TaskSystem steps transitions, sequences and monitors once per tick.
type TaskSystem struct{}

func NewTaskSystem() *TaskSystem { return &TaskSystem{} }

func (s *TaskSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	w.StepTasks(w.DeltaTime())
}
