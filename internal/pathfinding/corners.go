package pathfinding

import "github.com/Faultbox/tycoon/pkg/math"

// OptimizeCorners drops the middle point of every three consecutive
// waypoints whose first and third points differ in both X and Z. After a
// removal the same index is checked again. Endpoints are never removed and
// the input slice is left untouched.
//
// The shortcut between the remaining points is not checked against the
// occupancy map, so a route can visually clip a blocked L-shaped corner.
func OptimizeCorners(points []math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(points))
	copy(out, points)

	i := 0
	for i+2 < len(out) {
		a, c := out[i], out[i+2]
		if a.X != c.X && a.Z != c.Z {
			out = append(out[:i+1], out[i+2:]...)
			continue
		}
		i++
	}
	return out
}
