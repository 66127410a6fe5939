package ecs

// Task is a cooperatively scheduled unit of work. Step runs one slice of the
// task up to its next suspension point and reports whether it has finished.
type Task interface {
	Step(dt float64) bool
}

// TaskFunc adapts a function to Task.
type TaskFunc func(dt float64) bool

func (f TaskFunc) Step(dt float64) bool {
	return f(dt)
}

type taskList struct {
	items []Task
}

// Spawn schedules a task. Tasks spawned while tasks are being stepped run in
// the same pass, after every task that was already queued.
func (w *World) Spawn(t Task) {
	if w == nil || t == nil {
		return
	}
	w.tasks.items = append(w.tasks.items, t)
}

// StepTasks steps every live task once, in spawn order.
func (w *World) StepTasks(dt float64) {
	if w == nil {
		return
	}
	kept := 0
	for i := 0; i < len(w.tasks.items); i++ {
		t := w.tasks.items[i]
		if t.Step(dt) {
			continue
		}
		w.tasks.items[kept] = t
		kept++
	}
	for i := kept; i < len(w.tasks.items); i++ {
		w.tasks.items[i] = nil
	}
	w.tasks.items = w.tasks.items[:kept]
}

// TaskCount returns the number of pending tasks.
func (w *World) TaskCount() int {
	if w == nil {
		return 0
	}
	return len(w.tasks.items)
}
