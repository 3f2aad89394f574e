// Package npc moves non-player characters along computed paths.
package npc

import "github.com/Faultbox/tycoon/pkg/math"

// State is what an NPC is currently doing.
type State int

// Behaviour states.
const (
	Idle State = iota
	Walking
	Waiting // for a path request
	Working
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Walking:
		return "walking"
	case Waiting:
		return "waiting"
	case Working:
		return "working"
	default:
		return "unknown"
	}
}

// Movement defaults.
const (
	DefaultMoveSpeed       = 2.0 // Units per second
	DefaultRotationSpeed   = 8.0 // Slerp factor per second
	DefaultArrivalDistance = 0.1
)

// Forward is the local facing direction.
var Forward = math.Vec3{Z: -1}

// Params holds movement tuning.
type Params struct {
	MoveSpeed       float32
	RotationSpeed   float32
	ArrivalDistance float32
}

// DefaultParams returns the default movement tuning.
func DefaultParams() Params {
	return Params{
		MoveSpeed:       DefaultMoveSpeed,
		RotationSpeed:   DefaultRotationSpeed,
		ArrivalDistance: DefaultArrivalDistance,
	}
}

// NPC is a character that walks along a waypoint list.
type NPC struct {
	Name     string
	Position math.Vec3
	Rotation math.Quat
	State    State
	Params

	path []math.Vec3
	step int
}

// New creates an idle NPC at position. Non-positive params fall back to the
// defaults.
func New(name string, position math.Vec3, p Params) *NPC {
	d := DefaultParams()
	if p.MoveSpeed <= 0 {
		p.MoveSpeed = d.MoveSpeed
	}
	if p.RotationSpeed <= 0 {
		p.RotationSpeed = d.RotationSpeed
	}
	if p.ArrivalDistance <= 0 {
		p.ArrivalDistance = d.ArrivalDistance
	}
	return &NPC{
		Name:     name,
		Position: position,
		Rotation: math.QuatIdentity(),
		State:    Idle,
		Params:   p,
	}
}

// SetPath starts walking along waypoints. The slice is copied.
// An empty path leaves the NPC idle.
func (n *NPC) SetPath(waypoints []math.Vec3) {
	n.path = append([]math.Vec3(nil), waypoints...)
	n.step = 0
	if len(n.path) == 0 {
		n.State = Idle
		return
	}
	n.State = Walking
}

// ClearPath drops the current path and sets the NPC idle.
func (n *NPC) ClearPath() {
	n.path = nil
	n.step = 0
	n.State = Idle
}

// Path returns the current waypoints.
func (n *NPC) Path() []math.Vec3 {
	return n.path
}

// Step returns the index of the waypoint being walked to.
func (n *NPC) Step() int {
	return n.step
}

// Arrived reports whether every waypoint of the current path was reached.
func (n *NPC) Arrived() bool {
	return len(n.path) > 0 && n.step >= len(n.path)
}

// Update advances a walking NPC by dt seconds.
// Returns true if the position or rotation changed.
func (n *NPC) Update(dt float32) bool {
	if n.State != Walking || n.step >= len(n.path) || dt <= 0 {
		return false
	}

	target := n.path[n.step]
	delta := target.Sub(n.Position)
	dist := delta.Length()

	if dist > 0 {
		move := min(n.MoveSpeed*dt, dist)
		n.Position = n.Position.Add(delta.Scale(move / dist))

		if flat := delta.XZ(); flat.Length() > 0 {
			t := min(n.RotationSpeed*dt, 1)
			n.Rotation = n.Rotation.Slerp(math.QuatFromRotationY(flat.Yaw()), t)
		}
	}

	if n.Position.Distance(target) < n.ArrivalDistance {
		n.step++
		if n.step >= len(n.path) {
			n.State = Idle
		}
	}
	return dist > 0
}

// Facing returns the world-space forward direction.
func (n *NPC) Facing() math.Vec3 {
	return n.Rotation.Rotate(Forward)
}
