// Package physics provides oriented box colliders and overlap tests.
package physics

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/tycoon/pkg/math"
)

// ErrDegenerateCollider is returned when a collider has a zero scale component.
var ErrDegenerateCollider = errors.New("degenerate collider: scale components must be non-zero")

// BoxCollider is an oriented box. Scale holds the full extents, not half extents.
type BoxCollider struct {
	Center   math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// NewBoxCollider creates a collider from center, rotation and full extents.
func NewBoxCollider(center math.Vec3, rotation math.Quat, scale math.Vec3) BoxCollider {
	return BoxCollider{
		Center:   center,
		Rotation: rotation,
		Scale:    scale,
	}
}

// Validate reports whether the collider has usable face axes.
// Overlaps does not call it; zero-scale boxes give undefined results there.
func (b BoxCollider) Validate() error {
	if b.Scale.X == 0 || b.Scale.Y == 0 || b.Scale.Z == 0 {
		return ErrDegenerateCollider
	}
	return nil
}

// Corners returns the 8 world-space corners.
// Corner i takes the sign of bit 0, 1 and 2 of i for X, Y and Z respectively
// (0 = negative half extent, 1 = positive).
func (b BoxCollider) Corners() [8]math.Vec3 {
	half := b.Scale.Scale(0.5)
	rot := b.Rotation.ToMat3()

	var corners [8]math.Vec3
	for i := range corners {
		sign := math.Vec3{
			X: float32(i&1)*2 - 1,
			Y: float32((i>>1)&1)*2 - 1,
			Z: float32((i>>2)&1)*2 - 1,
		}
		corners[i] = b.Center.Add(rot.MulVec3(half.Mul(sign)))
	}
	return corners
}

// Axes returns the three face normals of the box (the rotated basis vectors).
func (b BoxCollider) Axes() [3]math.Vec3 {
	rot := b.Rotation.ToMat3()
	return [3]math.Vec3{rot.Col(0), rot.Col(1), rot.Col(2)}
}

// AABB returns the axis-aligned bounds of the corners.
func (b BoxCollider) AABB() (lo, hi math.Vec3) {
	lo = math.Splat(float32(gomath.Inf(1)))
	hi = math.Splat(float32(gomath.Inf(-1)))
	for _, c := range b.Corners() {
		lo = lo.Min(c)
		hi = hi.Max(c)
	}
	return lo, hi
}

// Project projects the corners onto axis and returns the covered interval.
func (b BoxCollider) Project(axis math.Vec3) (lo, hi float32) {
	lo = float32(gomath.Inf(1))
	hi = float32(gomath.Inf(-1))
	for _, c := range b.Corners() {
		d := c.Dot(axis)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}

// Overlaps tests the boxes against the six face axes of both boxes.
// Edge cross-product axes are not tested, so some edge-on-edge
// configurations report an overlap that a full 15-axis test would reject.
//
// The boxes are separated on an axis when a.max < b.min - inset or
// a.min > b.max + inset. A negative inset shrinks the contact region so
// that boxes that only touch are not considered overlapping.
func (b BoxCollider) Overlaps(other BoxCollider, inset float32) bool {
	axesA := b.Axes()
	axesB := other.Axes()

	for _, axes := range [2][3]math.Vec3{axesA, axesB} {
		for _, axis := range axes {
			if separated(b, other, axis, inset) {
				return false
			}
		}
	}
	return true
}

func separated(a, b BoxCollider, axis math.Vec3, inset float32) bool {
	aMin, aMax := a.Project(axis)
	bMin, bMax := b.Project(axis)
	// Same as aMax < bMin-inset || aMin > bMax+inset, written as gaps so the
	// result does not depend on argument order.
	return bMin-aMax > inset || aMin-bMax > inset
}

// OverlapsAny reports whether b overlaps any of others.
func (b BoxCollider) OverlapsAny(others []BoxCollider, inset float32) bool {
	for _, o := range others {
		if b.Overlaps(o, inset) {
			return true
		}
	}
	return false
}
