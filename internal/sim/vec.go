package sim

import "math"

// Vec2 is a 2-D vector used for positions and velocities
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Len returns the vector's magnitude
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dot returns the dot product of v and o
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Normalized returns a unit vector in v's direction, or the zero vector
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// ClampUnit clamps both components to [-1, 1]
func (v Vec2) ClampUnit() Vec2 {
	return Vec2{ClampAxis(v.X), ClampAxis(v.Y)}
}

// ClampAxis clamps a single input axis to [-1, 1].
// NaN and infinities default to 0 rather than being rejected.
func ClampAxis(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, x))
}

// Wrap wraps a position into the [0,w) x [0,h) world
func (v Vec2) Wrap(w, h float64) Vec2 {
	return Vec2{wrapAxis(v.X, w), wrapAxis(v.Y, h)}
}

func wrapAxis(x, max float64) float64 {
	if max <= 0 {
		return x
	}
	x = math.Mod(x, max)
	if x < 0 {
		x += max
	}
	return x
}
