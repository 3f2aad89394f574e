// Package rooms assigns room ids to tiles and derives where walls belong.
package rooms

import (
	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/grid"
)

// Default world bounds.
const (
	DefaultWidth  = 50
	DefaultHeight = 50
)

// Empty is the room id of unassigned tiles.
const Empty = 0

// Direction indexes a tile edge.
type Direction int

// Tile edges, in WallDirections order.
const (
	Left  Direction = iota // -X
	Right                  // +X
	Down                   // -Z
	Up                     // +Z
)

var offsets = [4][2]int{
	Left:  {-1, 0},
	Right: {1, 0},
	Down:  {0, -1},
	Up:    {0, 1},
}

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "unknown"
	}
}

// Walls holds one flag per edge, indexed by Direction.
type Walls [4]bool

type tile struct {
	room  int
	walls Walls
}

// Map is a fixed-size room layout starting at tile (0,0).
// It is not safe for concurrent use.
type Map struct {
	width, height int
	tiles         []tile
	dirty         map[grid.Coord]struct{}
	log           *zap.Logger
}

// New creates a map with every tile unassigned. Non-positive sizes fall
// back to the defaults.
func New(width, height int, log *zap.Logger) *Map {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Map{
		width:  width,
		height: height,
		tiles:  make([]tile, width*height),
		dirty:  make(map[grid.Coord]struct{}),
		log:    log.Named("rooms"),
	}
	for z := 0; z < height; z++ {
		for x := 0; x < width; x++ {
			m.recompute(grid.C(x, z))
		}
	}
	return m
}

// Size returns the map bounds.
func (m *Map) Size() (width, height int) {
	return m.width, m.height
}

// InBounds reports whether c is inside the map.
func (m *Map) InBounds(c grid.Coord) bool {
	return c.X >= 0 && c.X < m.width && c.Z >= 0 && c.Z < m.height
}

func (m *Map) at(c grid.Coord) *tile {
	return &m.tiles[c.Z*m.width+c.X]
}

// RoomID returns the room of c, or Empty when c is out of bounds.
func (m *Map) RoomID(c grid.Coord) int {
	if !m.InBounds(c) {
		return Empty
	}
	return m.at(c).room
}

// SetRoom assigns c to room and schedules wall recomputation for c and its
// neighbours. Out-of-bounds coordinates are ignored.
func (m *Map) SetRoom(c grid.Coord, room int) {
	if !m.InBounds(c) {
		return
	}
	t := m.at(c)
	if t.room == room {
		return
	}
	t.room = room

	m.dirty[c] = struct{}{}
	for _, off := range offsets {
		n := c.Add(off[0], off[1])
		if m.InBounds(n) {
			m.dirty[n] = struct{}{}
		}
	}
}

// SetRoomRect applies SetRoom to every tile of the inclusive rectangle
// spanned by a and b, in either corner order.
func (m *Map) SetRoomRect(a, b grid.Coord, room int) {
	minX, maxX := min(a.X, b.X), max(a.X, b.X)
	minZ, maxZ := min(a.Z, b.Z), max(a.Z, b.Z)
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			m.SetRoom(grid.C(x, z), room)
		}
	}
	m.log.Debug("room rect assigned",
		zap.Stringer("from", a),
		zap.Stringer("to", b),
		zap.Int("room", room),
		zap.Int("pending", len(m.dirty)))
}

// Pending returns the number of tiles waiting for wall recomputation.
func (m *Map) Pending() int {
	return len(m.dirty)
}

// RecomputeWalls updates every scheduled tile and returns how many were
// processed.
func (m *Map) RecomputeWalls() int {
	n := len(m.dirty)
	for c := range m.dirty {
		m.recompute(c)
		delete(m.dirty, c)
	}
	return n
}

func (m *Map) recompute(c grid.Coord) {
	t := m.at(c)
	for d, off := range offsets {
		n := c.Add(off[0], off[1])
		t.walls[d] = !m.InBounds(n) || m.at(n).room != t.room
	}
}

// WallDirections returns the edges of c that need a wall. Pending
// recomputation is flushed first. Out-of-bounds coordinates have no walls.
func (m *Map) WallDirections(c grid.Coord) Walls {
	if !m.InBounds(c) {
		return Walls{}
	}
	if len(m.dirty) > 0 {
		m.RecomputeWalls()
	}
	return m.at(c).walls
}

// Tiles returns every tile assigned to room, ordered by Z then X.
func (m *Map) Tiles(room int) []grid.Coord {
	var out []grid.Coord
	for z := 0; z < m.height; z++ {
		for x := 0; x < m.width; x++ {
			c := grid.C(x, z)
			if m.at(c).room == room {
				out = append(out, c)
			}
		}
	}
	return out
}
