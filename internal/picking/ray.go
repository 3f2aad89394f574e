// Package picking provides ray casting against the ground and placed objects.
package picking

import (
	gomath "math"

	"github.com/Faultbox/tycoon/internal/physics"
	"github.com/Faultbox/tycoon/pkg/math"
)

// parallelEpsilon is the smallest |dir.Y| treated as crossing a horizontal plane.
const parallelEpsilon = 0.001

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay creates a ray, normalizing direction.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlaneY intersects the ray with the horizontal plane at planeY.
// Rays parallel to the plane or pointing away from it miss.
func (r Ray) IntersectPlaneY(planeY float32) (math.Vec3, bool) {
	if gomath.Abs(float64(r.Direction.Y)) < parallelEpsilon {
		return math.Vec3{}, false
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return math.Vec3{}, false
	}

	p := r.At(t)
	p.Y = planeY
	return p, true
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates a box from two opposite corners in any order.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

func axis(v math.Vec3, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// IntersectAABB runs the slab test and returns the entry and exit distances.
// tmin is negative when the origin is inside the box.
func (r Ray) IntersectAABB(box AABB) (tmin, tmax float32, hit bool) {
	tmin = -gomath.MaxFloat32
	tmax = gomath.MaxFloat32

	for i := 0; i < 3; i++ {
		o, d := axis(r.Origin, i), axis(r.Direction, i)
		lo, hi := axis(box.Min, i), axis(box.Max, i)

		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// IntersectBox tests the ray against an oriented collider by moving the ray
// into the box's local frame. It returns the distance to the entry point, or
// to the exit point when the ray starts inside.
func (r Ray) IntersectBox(b physics.BoxCollider) (float32, bool) {
	inv := b.Rotation.Conjugate()
	local := Ray{
		Origin:    inv.Rotate(r.Origin.Sub(b.Center)),
		Direction: inv.Rotate(r.Direction),
	}
	half := b.Scale.Scale(0.5)
	box := NewAABB(half.Scale(-1), half)

	tmin, tmax, hit := local.IntersectAABB(box)
	if !hit {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Pick returns the index of the nearest collider hit by the ray and the hit
// distance. Ties go to the earlier collider.
func Pick(r Ray, colliders []physics.BoxCollider) (index int, t float32, ok bool) {
	index = -1
	for i, c := range colliders {
		d, hit := r.IntersectBox(c)
		if !hit {
			continue
		}
		if !ok || d < t {
			index, t, ok = i, d, true
		}
	}
	return index, t, ok
}
