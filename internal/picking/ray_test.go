package picking

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tycoon/internal/physics"
	"github.com/Faultbox/tycoon/pkg/math"
)

func TestIntersectPlaneY(t *testing.T) {
	tests := []struct {
		name string
		ray  Ray
		want math.Vec3
		ok   bool
	}{
		{
			name: "straight down",
			ray:  NewRay(math.Vec3{X: 2, Y: 10, Z: 3}, math.Vec3{Y: -1}),
			want: math.Vec3{X: 2, Z: 3},
			ok:   true,
		},
		{
			name: "diagonal",
			ray:  NewRay(math.Vec3{Y: 4}, math.Vec3{X: 1, Y: -1}),
			want: math.Vec3{X: 4},
			ok:   true,
		},
		{
			name: "parallel",
			ray:  NewRay(math.Vec3{Y: 4}, math.Vec3{X: 1}),
		},
		{
			name: "pointing away",
			ray:  NewRay(math.Vec3{Y: 4}, math.Vec3{Y: 1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ray.IntersectPlaneY(0)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.want.X, got.X, 1e-4)
			assert.Equal(t, float32(0), got.Y)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-4)
		})
	}
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3{X: -1, Y: -1, Z: -1})
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, box.Min)

	tmin, tmax, hit := NewRay(math.Vec3{X: -5}, math.Vec3{X: 1}).IntersectAABB(box)
	require.True(t, hit)
	assert.InDelta(t, 4, tmin, 1e-5)
	assert.InDelta(t, 6, tmax, 1e-5)

	// Zero direction components only hit when the origin is inside that slab.
	_, _, hit = NewRay(math.Vec3{X: -5, Y: 2}, math.Vec3{X: 1}).IntersectAABB(box)
	assert.False(t, hit)

	// Box entirely behind the ray.
	_, _, hit = NewRay(math.Vec3{X: 5}, math.Vec3{X: 1}).IntersectAABB(box)
	assert.False(t, hit)
}

func TestIntersectBoxRotated(t *testing.T) {
	// A long thin box rotated 90 degrees around Y lies along Z.
	b := physics.NewBoxCollider(
		math.Vec3{X: 10},
		math.QuatFromRotationY(gomath.Pi/2),
		math.Vec3{X: 4, Y: 1, Z: 0.5},
	)

	down := math.Vec3{Y: -1}
	_, hit := NewRay(math.Vec3{X: 10, Y: 5, Z: 1.5}, down).IntersectBox(b)
	assert.True(t, hit, "inside the rotated extent")

	_, hit = NewRay(math.Vec3{X: 11.5, Y: 5}, down).IntersectBox(b)
	assert.False(t, hit, "inside the unrotated extent only")

	d, hit := NewRay(math.Vec3{X: 10, Y: 5}, down).IntersectBox(b)
	require.True(t, hit)
	assert.InDelta(t, 4.5, d, 1e-4)

	// Starting inside reports the exit distance.
	d, hit = NewRay(math.Vec3{X: 10}, down).IntersectBox(b)
	require.True(t, hit)
	assert.InDelta(t, 0.5, d, 1e-4)
}

func TestPickNearest(t *testing.T) {
	boxes := []physics.BoxCollider{
		physics.NewBoxCollider(math.Vec3{Y: 0.5}, math.QuatIdentity(), math.Splat(1)),
		physics.NewBoxCollider(math.Vec3{Y: 3}, math.QuatIdentity(), math.Splat(1)),
		physics.NewBoxCollider(math.Vec3{X: 5, Y: 3}, math.QuatIdentity(), math.Splat(1)),
	}
	r := NewRay(math.Vec3{Y: 10}, math.Vec3{Y: -1})

	i, d, ok := Pick(r, boxes)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.InDelta(t, 6.5, d, 1e-4)
	assert.InDelta(t, 3.5, r.At(d).Y, 1e-4)

	i, _, ok = Pick(NewRay(math.Vec3{X: -5, Y: 10}, math.Vec3{Y: -1}), boxes)
	assert.False(t, ok)
	assert.Equal(t, -1, i)
}
