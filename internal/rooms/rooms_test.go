package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/tycoon/internal/grid"
)

func TestNewDefaults(t *testing.T) {
	m := New(0, -3, nil)
	w, h := m.Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
	assert.Equal(t, 0, m.Pending())
}

func TestBorderWalls(t *testing.T) {
	m := New(5, 4, nil)

	assert.Equal(t, Walls{Left: true, Down: true}, m.WallDirections(grid.C(0, 0)))
	assert.Equal(t, Walls{Right: true, Up: true}, m.WallDirections(grid.C(4, 3)))
	assert.Equal(t, Walls{}, m.WallDirections(grid.C(2, 2)))

	// The world edge always needs a wall regardless of room id.
	m.SetRoomRect(grid.C(0, 0), grid.C(4, 3), 7)
	for x := 0; x < 5; x++ {
		assert.True(t, m.WallDirections(grid.C(x, 0))[Down])
		assert.True(t, m.WallDirections(grid.C(x, 3))[Up])
	}
	for z := 0; z < 4; z++ {
		assert.True(t, m.WallDirections(grid.C(0, z))[Left])
		assert.True(t, m.WallDirections(grid.C(4, z))[Right])
	}
}

func TestAdjacentRoomsShareBoundaryWalls(t *testing.T) {
	m := New(DefaultWidth, DefaultHeight, nil)
	m.SetRoomRect(grid.C(0, 0), grid.C(4, 4), 1)
	m.SetRoomRect(grid.C(5, 0), grid.C(9, 4), 2)

	for z := 0; z <= 4; z++ {
		assert.True(t, m.WallDirections(grid.C(4, z))[Right], "x=4 z=%d", z)
		assert.True(t, m.WallDirections(grid.C(5, z))[Left], "x=5 z=%d", z)
		assert.False(t, m.WallDirections(grid.C(3, z))[Right])
		assert.False(t, m.WallDirections(grid.C(6, z))[Left])
	}

	// Top edge of both rooms faces unassigned tiles.
	assert.True(t, m.WallDirections(grid.C(2, 4))[Up])
	assert.True(t, m.WallDirections(grid.C(2, 5))[Down])
	assert.False(t, m.WallDirections(grid.C(2, 3))[Up])
}

func TestSetRoomRectOrderIndependent(t *testing.T) {
	a := New(10, 10, nil)
	b := New(10, 10, nil)
	a.SetRoomRect(grid.C(1, 2), grid.C(4, 6), 3)
	b.SetRoomRect(grid.C(4, 6), grid.C(1, 2), 3)

	assert.Equal(t, a.Tiles(3), b.Tiles(3))
	assert.Len(t, a.Tiles(3), 4*5)
}

func TestOutOfBoundsIsNoop(t *testing.T) {
	m := New(5, 5, nil)
	m.SetRoom(grid.C(-1, 0), 4)
	m.SetRoom(grid.C(5, 5), 4)
	assert.Equal(t, 0, m.Pending())
	assert.Empty(t, m.Tiles(4))
	assert.Equal(t, Empty, m.RoomID(grid.C(99, 0)))
	assert.Equal(t, Walls{}, m.WallDirections(grid.C(-1, -1)))

	// A rect that straddles the border only assigns the inside part.
	m.SetRoomRect(grid.C(3, 3), grid.C(8, 8), 4)
	assert.Len(t, m.Tiles(4), 4)
}

func TestReassignUpdatesNeighbours(t *testing.T) {
	m := New(10, 10, nil)
	m.SetRoomRect(grid.C(0, 0), grid.C(5, 0), 1)
	require.False(t, m.WallDirections(grid.C(2, 0))[Right])

	// Carving tile 3 into another room puts walls on both neighbours.
	m.SetRoom(grid.C(3, 0), 2)
	assert.Equal(t, 4, m.Pending(), "tile plus its three in-bounds neighbours")
	assert.True(t, m.WallDirections(grid.C(2, 0))[Right])
	assert.True(t, m.WallDirections(grid.C(4, 0))[Left])
	assert.Equal(t, Walls{Left: true, Right: true, Down: true, Up: true}, m.WallDirections(grid.C(3, 0)))

	// Reverting removes them again.
	m.SetRoom(grid.C(3, 0), 1)
	assert.False(t, m.WallDirections(grid.C(2, 0))[Right])
	assert.False(t, m.WallDirections(grid.C(4, 0))[Left])
}

func TestWallInvariant(t *testing.T) {
	m := New(12, 9, nil)
	m.SetRoomRect(grid.C(0, 0), grid.C(5, 5), 1)
	m.SetRoomRect(grid.C(3, 3), grid.C(9, 7), 2)
	m.SetRoom(grid.C(11, 8), 3)
	m.SetRoomRect(grid.C(4, 4), grid.C(4, 4), Empty)
	m.RecomputeWalls()

	w, h := m.Size()
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := grid.C(x, z)
			walls := m.WallDirections(c)
			for d, off := range offsets {
				n := c.Add(off[0], off[1])
				want := !m.InBounds(n) || m.RoomID(n) != m.RoomID(c)
				assert.Equal(t, want, walls[d], "tile %v direction %v", c, Direction(d))
			}
		}
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "unknown", Direction(9).String())
}
