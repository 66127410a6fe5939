package scene

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/transition"
	"github.com/mitchellh/mapstructure"
)

// builder constructs one transition kind from decoded params.
type builder func(bc *buildContext, targets []ecs.Entity, cfg transition.Config, params map[string]any) (*transition.Transition, error)

// kinds maps each transition kind to its constructor.
var kinds = map[transition.Kind]builder{
	transition.KindToggle:   buildToggle,
	transition.KindEmission: buildEmission,
	transition.KindVector:   buildVector,
	transition.KindColor:    buildColor,
	transition.KindTorque:   buildTorque,
}

// Kinds lists the registered transition kinds.
func Kinds() []transition.Kind {
	return []transition.Kind{
		transition.KindToggle,
		transition.KindEmission,
		transition.KindVector,
		transition.KindColor,
		transition.KindTorque,
	}
}

func lookupKind(name string) (builder, error) {
	b, ok := kinds[transition.Kind(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown transition kind %q", name)
	}
	return b, nil
}

type toggleParams struct {
	Flag   string `mapstructure:"flag"`
	Media  string `mapstructure:"media"`
	Script string `mapstructure:"script"`
}

type emissionParams struct {
	Fragment string `mapstructure:"fragment"`
}

type vectorParams struct {
	Property string       `mapstructure:"property"`
	Delta    common.Vec3  `mapstructure:"delta"`
	ROI      float64      `mapstructure:"roi"`
	Initial  *common.Vec3 `mapstructure:"initial"`
}

type colorParams struct {
	Delta   common.Vec4 `mapstructure:"delta"`
	Initial common.Vec4 `mapstructure:"initial"`
}

type curveKey struct {
	Time  float64 `mapstructure:"time"`
	Value float64 `mapstructure:"value"`
}

type torqueParams struct {
	Magnitude float64    `mapstructure:"magnitude"`
	Curve     []curveKey `mapstructure:"curve"`
	Bounds    struct {
		Min float64 `mapstructure:"min"`
		Max float64 `mapstructure:"max"`
	} `mapstructure:"bounds"`
}

// decodeParams fills out from a raw YAML params map.
func decodeParams(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(vec3Hook, vec4Hook),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

var (
	vec3Type = reflect.TypeOf(common.Vec3{})
	vec4Type = reflect.TypeOf(common.Vec4{})
)

func vec3Hook(from, to reflect.Type, data any) (any, error) {
	if to != vec3Type || from == vec3Type {
		return data, nil
	}
	return parseVec3(data)
}

func vec4Hook(from, to reflect.Type, data any) (any, error) {
	if to != vec4Type || from == vec4Type {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return parseColor(v)
	case []any:
		if len(v) != 4 {
			return nil, fmt.Errorf("color needs 4 components, got %d", len(v))
		}
		var out [4]float64
		for i, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return nil, fmt.Errorf("invalid color component %v", c)
			}
			out[i] = f
		}
		return common.Vec4{R: out[0], G: out[1], B: out[2], A: out[3]}, nil
	}
	return data, nil
}

func buildToggle(bc *buildContext, targets []ecs.Entity, cfg transition.Config, raw map[string]any) (*transition.Transition, error) {
	var p toggleParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	params := transition.ToggleParams{Flag: p.Flag, Media: p.Media}
	if p.Script != "" {
		hook, err := bc.resources.Scripts.Hook(p.Script)
		if err != nil {
			return nil, err
		}
		params.Hook = hook
	}
	return transition.NewToggle(bc.world, targets, cfg, params)
}

func buildEmission(bc *buildContext, targets []ecs.Entity, cfg transition.Config, raw map[string]any) (*transition.Transition, error) {
	var p emissionParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return transition.NewEmissionToggle(bc.world, targets, cfg, p.Fragment)
}

func buildVector(bc *buildContext, targets []ecs.Entity, cfg transition.Config, raw map[string]any) (*transition.Transition, error) {
	var p vectorParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	prop := component.VectorProperty(strings.ToLower(p.Property))
	if prop == "" {
		prop = component.PropertyPosition
	}
	if !prop.Valid() {
		return nil, fmt.Errorf("unknown vector property %q", p.Property)
	}
	params := transition.VectorParams{Property: prop, Delta: p.Delta, ROI: p.ROI}
	if p.Initial != nil {
		params.Initial = *p.Initial
	}
	return transition.NewVectorChange(bc.world, targets, cfg, params)
}

func buildColor(bc *buildContext, targets []ecs.Entity, cfg transition.Config, raw map[string]any) (*transition.Transition, error) {
	var p colorParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return transition.NewColorChange(bc.world, targets, cfg, transition.ColorParams{Delta: p.Delta, Initial: p.Initial})
}

func buildTorque(bc *buildContext, targets []ecs.Entity, cfg transition.Config, raw map[string]any) (*transition.Transition, error) {
	var p torqueParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	curve := make(transition.Curve, 0, len(p.Curve))
	for _, k := range p.Curve {
		curve = append(curve, transition.Key{Time: k.Time, Value: k.Value})
	}
	return transition.NewTorqueApply(bc.world, targets, cfg, transition.TorqueParams{
		Magnitude: p.Magnitude,
		Curve:     curve,
		Bounds:    transition.Bounds{Min: p.Bounds.Min, Max: p.Bounds.Max},
	})
}
