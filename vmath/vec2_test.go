package vmath

import (
	"math"
	"testing"
)

func TestV2Dist(t *testing.T) {
	if d := V2Dist(V2(0, 0), V2(3, 4)); d != 5 {
		t.Errorf("dist = %v, want 5", d)
	}
}

func TestV2FromAngle(t *testing.T) {
	up := V2FromAngle(0)
	if math.Abs(up.X) > 1e-9 || math.Abs(up.Y-1) > 1e-9 {
		t.Errorf("0 deg = %+v, want +Y", up)
	}
	left := V2FromAngle(90)
	if math.Abs(left.X+1) > 1e-9 || math.Abs(left.Y) > 1e-9 {
		t.Errorf("90 deg = %+v, want -X", left)
	}
}

func TestV2MoveToward(t *testing.T) {
	p, arrived := V2MoveToward(V2(0, 0), V2(10, 0), 4, 0.1)
	if arrived || p.X != 4 || p.Y != 0 {
		t.Fatalf("step = %+v arrived=%v", p, arrived)
	}
	p, arrived = V2MoveToward(V2(9.95, 0), V2(10, 0), 0.0, 0.1)
	if !arrived || p != V2(10, 0) {
		t.Fatalf("tolerance arrival failed: %+v %v", p, arrived)
	}
}

func TestV2NormalizeZero(t *testing.T) {
	if V2Normalize(Vec2{}) != (Vec2{}) {
		t.Error("zero vector must normalize to zero")
	}
}
