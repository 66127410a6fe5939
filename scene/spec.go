package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/milk9111/propsim/common"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Spec is a whole scene as authored in YAML.
type Spec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Objects     []ObjectSpec `yaml:"objects"`
}

type ObjectSpec struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"`
	Parent    ParentSpec      `yaml:"parent"`
	Transform TransformSpec   `yaml:"transform"`
	Flags     map[string]bool `yaml:"flags"`
	Media     []string        `yaml:"media"`
	Materials []MaterialSpec  `yaml:"materials"`
	Hinge     *HingeSpec      `yaml:"hinge"`
	Switches  []SwitchSpec    `yaml:"switches"`
}

type ParentSpec struct {
	Type     string `yaml:"type"`
	Relation string `yaml:"relation"`
}

type TransformSpec struct {
	Position YAMLVec3  `yaml:"position"`
	Rotation YAMLVec3  `yaml:"rotation"`
	Scale    *YAMLVec3 `yaml:"scale"`
}

type MaterialSpec struct {
	Name     string    `yaml:"name"`
	Emissive bool      `yaml:"emissive"`
	Color    YAMLColor `yaml:"color"`
}

type HingeSpec struct {
	Axis   YAMLVec3 `yaml:"axis"`
	Mass   float64  `yaml:"mass"`
	Moment float64  `yaml:"moment"`
	Angle  float64  `yaml:"angle"`
}

type SwitchSpec struct {
	Name        string         `yaml:"name"`
	Pose        string         `yaml:"pose"`
	Action      string         `yaml:"action"`
	Anchor      YAMLVec3       `yaml:"anchor"`
	InitiallyOn bool           `yaml:"initially_on"`
	Sequences   []SequenceSpec `yaml:"sequences"`
	Shared      []SharedSpec   `yaml:"shared"`
}

type SharedSpec struct {
	Switch   string `yaml:"switch"`
	Sequence int    `yaml:"sequence"`
}

type SequenceSpec struct {
	Name        string           `yaml:"name"`
	Links       []string         `yaml:"links"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

type TransitionSpec struct {
	Kind            string         `yaml:"kind"`
	Name            string         `yaml:"name"`
	Targets         []string       `yaml:"targets"`
	Delay           float64        `yaml:"delay"`
	Duration        float64        `yaml:"duration"`
	DelayPolicy     string         `yaml:"delay_policy"`
	ActivePolicy    string         `yaml:"active_policy"`
	UseInitialValue bool           `yaml:"use_initial_value"`
	Params          map[string]any `yaml:"params"`
}

// Parse decodes a scene document.
func Parse(data []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("scene: unmarshal: %w", err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return Spec{}, fmt.Errorf("scene: name is required")
	}
	return spec, nil
}

// YAMLVec3 accepts "x,y,z", [x, y, z] or {x: , y: , z: }.
type YAMLVec3 struct {
	common.Vec3
}

func (v *YAMLVec3) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	vec, err := parseVec3(raw)
	if err != nil {
		return err
	}
	v.Vec3 = vec
	return nil
}

func parseVec3(raw any) (common.Vec3, error) {
	switch v := raw.(type) {
	case nil:
		return common.Vec3{}, nil
	case common.Vec3:
		return v, nil
	case string:
		parts := strings.Split(v, ",")
		if len(parts) != 3 {
			return common.Vec3{}, fmt.Errorf("invalid vector %q", v)
		}
		var out [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return common.Vec3{}, fmt.Errorf("invalid vector %q: %w", v, err)
			}
			out[i] = f
		}
		return common.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
	case []any:
		if len(v) != 3 {
			return common.Vec3{}, fmt.Errorf("vector needs 3 components, got %d", len(v))
		}
		var out [3]float64
		for i, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return common.Vec3{}, fmt.Errorf("invalid vector component %v", c)
			}
			out[i] = f
		}
		return common.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
	case map[string]any:
		var out common.Vec3
		for k, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return common.Vec3{}, fmt.Errorf("invalid vector component %s=%v", k, c)
			}
			switch strings.ToLower(k) {
			case "x":
				out.X = f
			case "y":
				out.Y = f
			case "z":
				out.Z = f
			default:
				return common.Vec3{}, fmt.Errorf("unknown vector component %q", k)
			}
		}
		return out, nil
	}
	return common.Vec3{}, fmt.Errorf("unsupported vector value %T", raw)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// YAMLColor accepts "#rrggbb", "#rrggbbaa" or an SVG color name.
type YAMLColor struct {
	common.Vec4
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	v, err := parseColor(value.Value)
	if err != nil {
		return err
	}
	c.Vec4 = v
	return nil
}

func parseColor(s string) (common.Vec4, error) {
	s = strings.TrimSpace(s)
	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		return fromRGBA(named), nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return common.Vec4{}, fmt.Errorf("invalid color format: %s", s)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return common.Vec4{}, err
	}
	g, err := parse(2)
	if err != nil {
		return common.Vec4{}, err
	}
	b, err := parse(4)
	if err != nil {
		return common.Vec4{}, err
	}

	a := uint8(255)
	if len(hex) == 8 {
		a, err = parse(6)
		if err != nil {
			return common.Vec4{}, err
		}
	}
	return fromRGBA(color.RGBA{R: r, G: g, B: b, A: a}), nil
}

func fromRGBA(c color.RGBA) common.Vec4 {
	return common.Vec4{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}
