package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Vec3 is a position, Euler rotation (degrees) or scale.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Cosine is the cosine similarity of v and o; zero when either is zero.
func (v Vec3) Cosine(o Vec3) float64 {
	lv, lo := v.Length(), o.Length()
	if lv == 0 || lo == 0 {
		return 0
	}
	return v.Dot(o) / (lv * lo)
}

// LerpVec3 interpolates each component.
func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t), Z: Lerp(a.Z, b.Z, t)}
}

// Vec4 is an RGBA color with float components. Deltas may be negative.
type Vec4 struct {
	R float64
	G float64
	B float64
	A float64
}

func (c Vec4) Add(o Vec4) Vec4 {
	return Vec4{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

func (c Vec4) Scale(s float64) Vec4 {
	return Vec4{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const (
	Deg2Rad = math.Pi / 180
	Rad2Deg = 180 / math.Pi
)
