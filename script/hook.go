// Package script runs tengo toggle hooks. A hook script defines
//
//	on_toggle := func(engine, was_on) { ... }
//
// and is called once per toggled target in place of the default media
// handling. The engine map exposes play, stop, flag, set_flag and log.
package script

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

const toggleDispatchScript = `
on_toggle(__engine, __was_on)
`

var safeModules = []string{"math", "text", "times", "rand", "fmt", "json", "enum"}

// Hook is a compiled toggle script. It implements transition.ToggleHook.
type Hook struct {
	name     string
	mu       sync.Mutex
	compiled *tengo.Compiled
	logger   *slog.Logger
}

// Compile prepares src for repeated runs.
func Compile(name string, src []byte, logger *slog.Logger) (*Hook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	full := string(src) + "\n" + toggleDispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__was_on", false)
	s.SetImports(stdlib.GetModuleMap(safeModules...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Hook{name: name, compiled: compiled, logger: logger}, nil
}

func (h *Hook) Name() string {
	return h.name
}

// OnToggle runs the script for one target.
func (h *Hook) OnToggle(w *ecs.World, target ecs.Entity, wasOn bool) error {
	if h == nil || h.compiled == nil {
		return fmt.Errorf("nil script hook")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.compiled.Set("__engine", h.engine(w, target)); err != nil {
		return err
	}
	if err := h.compiled.Set("__was_on", wasOn); err != nil {
		return err
	}
	if err := h.compiled.Run(); err != nil {
		return fmt.Errorf("run %s: %w", h.name, err)
	}
	return nil
}

func (h *Hook) engine(w *ecs.World, target ecs.Entity) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		media, ok := ecs.Get(w, target, component.MediaComponent)
		if !ok {
			return tengo.FalseValue, nil
		}
		media.Play(objectAsString(args[0]))
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		media, ok := ecs.Get(w, target, component.MediaComponent)
		if !ok {
			return tengo.FalseValue, nil
		}
		media.Stop(objectAsString(args[0]))
		return tengo.TrueValue, nil
	}}

	values["flag"] = &tengo.UserFunction{Name: "flag", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		flags, ok := ecs.Get(w, target, component.FlagsComponent)
		if !ok || !flags.Get(objectAsString(args[0])) {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["set_flag"] = &tengo.UserFunction{Name: "set_flag", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		flags, ok := ecs.Get(w, target, component.FlagsComponent)
		if !ok {
			flags = &component.Flags{}
			if err := ecs.Add(w, target, component.FlagsComponent, flags); err != nil {
				return nil, err
			}
		}
		flags.Set(name, !args[1].IsFalsy())
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		h.logger.Info("script", "hook", h.name, "entity", target, "msg", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
