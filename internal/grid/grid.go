// Package grid partitions the XZ plane into square tiles and tracks which
// tiles are occupied by placed colliders.
package grid

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/tycoon/internal/physics"
	"github.com/Faultbox/tycoon/pkg/math"
)

// DefaultTileSize is the tile edge length used when none is configured.
const DefaultTileSize = 0.2

// Coord addresses a tile. Coordinates are unbounded signed integers.
type Coord struct {
	X, Z int
}

// C is shorthand for Coord{X: x, Z: z}.
func C(x, z int) Coord {
	return Coord{X: x, Z: z}
}

// Add returns the coordinate offset by (dx, dz).
func (c Coord) Add(dx, dz int) Coord {
	return Coord{X: c.X + dx, Z: c.Z + dz}
}

// String returns the coordinate as "(x,z)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Grid maps world positions to tiles. It is immutable after construction.
type Grid struct {
	tileSize float32
}

// New creates a grid. tileSize must be positive.
func New(tileSize float32) (Grid, error) {
	if !(tileSize > 0) {
		return Grid{}, fmt.Errorf("tile size must be positive, got %v", tileSize)
	}
	return Grid{tileSize: tileSize}, nil
}

// MustNew is like New but panics on an invalid tile size.
func MustNew(tileSize float32) Grid {
	g, err := New(tileSize)
	if err != nil {
		panic(err)
	}
	return g
}

// TileSize returns the tile edge length.
func (g Grid) TileSize() float32 {
	return g.tileSize
}

// WorldToCoord returns the tile containing position. Y is ignored.
func (g Grid) WorldToCoord(position math.Vec3) Coord {
	return Coord{
		X: int(gomath.Floor(float64(position.X / g.tileSize))),
		Z: int(gomath.Floor(float64(position.Z / g.tileSize))),
	}
}

// CoordToTile returns the center of the tile at Y = 0.
func (g Grid) CoordToTile(c Coord) math.Vec3 {
	return math.Vec3{
		X: (float32(c.X) + 0.5) * g.tileSize,
		Y: 0,
		Z: (float32(c.Z) + 0.5) * g.tileSize,
	}
}

// WorldToTile snaps position to the center of its tile.
func (g Grid) WorldToTile(position math.Vec3) math.Vec3 {
	return g.CoordToTile(g.WorldToCoord(position))
}

// TileCollider returns the axis-aligned cube of edge TileSize centered on the tile.
func (g Grid) TileCollider(c Coord) physics.BoxCollider {
	return physics.NewBoxCollider(g.CoordToTile(c), math.QuatIdentity(), math.Splat(g.tileSize))
}
