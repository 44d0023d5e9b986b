package vmath

import (
	"math"
)

// Vec2 is a float64 2D vector in world or grid space
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func V2Add(a, b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func V2Sub(a, b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func V2Scale(v Vec2, s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func V2MagSq(v Vec2) float64 {
	return v.X*v.X + v.Y*v.Y
}

func V2Mag(v Vec2) float64 {
	return math.Sqrt(V2MagSq(v))
}

// V2Dist returns the Euclidean distance between a and b
func V2Dist(a, b Vec2) float64 {
	return V2Mag(V2Sub(a, b))
}

func V2Normalize(v Vec2) Vec2 {
	mag := V2Mag(v)
	if mag == 0 {
		return Vec2{}
	}
	inv := 1.0 / mag
	return Vec2{v.X * inv, v.Y * inv}
}

// V2FromAngle returns the unit vector rotated deg degrees counter-clockwise from +Y
func V2FromAngle(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{-math.Sin(rad), math.Cos(rad)}
}

// V2MoveToward steps from toward target by at most step, returning the new point and whether it arrived
// Arrival uses tolerance so a near miss counts as a hit
func V2MoveToward(from, target Vec2, step, tolerance float64) (Vec2, bool) {
	dir := V2Sub(target, from)
	dist := V2Mag(dir)
	if dist <= step+tolerance {
		return target, true
	}
	return V2Add(from, V2Scale(dir, step/dist)), false
}
