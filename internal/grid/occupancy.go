package grid

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/physics"
)

// CollisionInset is the inset used when testing a collider against tile
// boxes. Edge contact and very shallow overlaps do not block a tile.
const CollisionInset float32 = -0.1

// CoveredTiles returns the tiles whose tile box overlaps collider.
// The scan covers the axis-aligned bounds of the collider's corners and is
// pruned per tile with the oriented overlap test. Results are ordered by X
// then Z.
func CoveredTiles(g Grid, collider physics.BoxCollider) []Coord {
	lo, hi := collider.AABB()
	minC := g.WorldToCoord(lo)
	maxC := g.WorldToCoord(hi)

	var covered []Coord
	for x := minC.X; x <= maxC.X; x++ {
		for z := minC.Z; z <= maxC.Z; z++ {
			c := Coord{X: x, Z: z}
			if collider.Overlaps(g.TileCollider(c), CollisionInset) {
				covered = append(covered, c)
			}
		}
	}
	return covered
}

// Occupancy is a sparse map of blocked tiles. A missing entry means open.
//
// Occupancy is not safe for concurrent use. Mutations and reads are expected
// to happen on the single update goroutine; hand a Snapshot to anything that
// runs elsewhere.
type Occupancy struct {
	grid     Grid
	tiles    map[Coord]bool
	revision uint64
	log      *zap.Logger
}

// NewOccupancy creates an empty occupancy map on g. log may be nil.
func NewOccupancy(g Grid, log *zap.Logger) *Occupancy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Occupancy{
		grid:  g,
		tiles: make(map[Coord]bool),
		log:   log.Named("occupancy"),
	}
}

// Grid returns the grid the map is defined on.
func (o *Occupancy) Grid() Grid {
	return o.grid
}

// Mark blocks every tile covered by collider and returns them.
func (o *Occupancy) Mark(collider physics.BoxCollider) []Coord {
	covered := CoveredTiles(o.grid, collider)
	changed := false
	for _, c := range covered {
		if !o.tiles[c] {
			o.tiles[c] = true
			changed = true
		}
	}
	if changed {
		o.revision++
	}
	o.log.Debug("marked tiles", zap.Int("count", len(covered)), zap.Int("blocked", len(o.tiles)))
	return covered
}

// Unmark removes every tile covered by collider and returns them.
// Pass the same geometry that was marked, or tiles will leak.
func (o *Occupancy) Unmark(collider physics.BoxCollider) []Coord {
	covered := CoveredTiles(o.grid, collider)
	changed := false
	for _, c := range covered {
		if _, ok := o.tiles[c]; ok {
			delete(o.tiles, c)
			changed = true
		}
	}
	if changed {
		o.revision++
	}
	o.log.Debug("unmarked tiles", zap.Int("count", len(covered)), zap.Int("blocked", len(o.tiles)))
	return covered
}

// Set writes a single tile. Setting false removes the entry.
func (o *Occupancy) Set(c Coord, blocked bool) {
	prev, ok := o.tiles[c]
	if blocked {
		if ok && prev {
			return
		}
		o.tiles[c] = true
	} else {
		if !ok {
			return
		}
		delete(o.tiles, c)
	}
	o.revision++
}

// IsBlocked reports whether c is present and true.
func (o *Occupancy) IsBlocked(c Coord) bool {
	return o.tiles[c]
}

// Status returns the raw entry for c.
func (o *Occupancy) Status(c Coord) (blocked, present bool) {
	blocked, present = o.tiles[c]
	return blocked, present
}

// Len returns the number of entries.
func (o *Occupancy) Len() int {
	return len(o.tiles)
}

// Revision increases whenever the set of blocked tiles changes.
func (o *Occupancy) Revision() uint64 {
	return o.revision
}

// Blocked returns all blocked tiles ordered by X then Z.
func (o *Occupancy) Blocked() []Coord {
	out := make([]Coord, 0, len(o.tiles))
	for c, blocked := range o.tiles {
		if blocked {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, compareCoords)
	return out
}

// Snapshot returns a deep copy that shares nothing with o.
func (o *Occupancy) Snapshot() *Occupancy {
	tiles := make(map[Coord]bool, len(o.tiles))
	for c, v := range o.tiles {
		tiles[c] = v
	}
	return &Occupancy{
		grid:     o.grid,
		tiles:    tiles,
		revision: o.revision,
		log:      o.log,
	}
}

func compareCoords(a, b Coord) int {
	if a.X != b.X {
		return a.X - b.X
	}
	return a.Z - b.Z
}
