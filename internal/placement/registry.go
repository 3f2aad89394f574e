// Package placement keeps track of placed objects and the tiles they block.
package placement

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/grid"
	"github.com/Faultbox/tycoon/internal/physics"
)

// Placement errors.
var (
	ErrOverlap  = errors.New("placement overlaps an existing object")
	ErrNotFound = errors.New("object not found")
)

// DefaultInset is the overlap tolerance between placed objects.
const DefaultInset = grid.CollisionInset

// Object is a placed collider.
type Object struct {
	ID       uuid.UUID
	Kind     string
	Collider physics.BoxCollider
	Tiles    []grid.Coord
	seq      uint64
	span     []grid.Coord // Tiles under the collider's bounds
}

// Registry owns placed objects and keeps the occupancy map in sync with them.
// Obstacles that belong to no object should go through SetObstacle so that
// removing an object on top of one leaves it blocked; tiles written straight
// to the occupancy map are cleared by such a removal.
// It is not safe for concurrent use.
type Registry struct {
	occ       *grid.Occupancy
	inset     float32
	objects   map[uuid.UUID]*Object
	byTile    map[grid.Coord][]uuid.UUID // occupancy ownership
	bySpan    map[grid.Coord][]uuid.UUID // overlap candidates
	obstacles map[grid.Coord]struct{}
	nextSeq   uint64
	log       *zap.Logger
}

// NewRegistry creates a registry that marks tiles on occ.
func NewRegistry(occ *grid.Occupancy, inset float32, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		occ:     occ,
		inset:   inset,
		objects:   make(map[uuid.UUID]*Object),
		byTile:    make(map[grid.Coord][]uuid.UUID),
		bySpan:    make(map[grid.Coord][]uuid.UUID),
		obstacles: make(map[grid.Coord]struct{}),
		log:       log.Named("placement"),
	}
}

// CanPlace checks a collider against the registry without changing anything.
func (r *Registry) CanPlace(collider physics.BoxCollider) error {
	if err := collider.Validate(); err != nil {
		return err
	}

	// Objects that cover no tile, like a raised shelf or a cup sitting on a
	// tile corner, still collide; candidates come from the bounds.
	for _, id := range r.candidates(r.span(collider)) {
		other := r.objects[id]
		if collider.Overlaps(other.Collider, r.inset) {
			return fmt.Errorf("%w: %s %s", ErrOverlap, other.Kind, other.ID)
		}
	}
	// Tiles shared with a neighbouring object are fine once the colliders
	// themselves are apart; anything else blocked was put there directly.
	for _, c := range grid.CoveredTiles(r.occ.Grid(), collider) {
		if r.occ.IsBlocked(c) && len(r.byTile[c]) == 0 {
			return fmt.Errorf("%w: tile %v is blocked", ErrOverlap, c)
		}
	}
	return nil
}

// Place validates collider and, if it fits, marks its tiles and records it.
func (r *Registry) Place(kind string, collider physics.BoxCollider) (*Object, error) {
	if err := r.CanPlace(collider); err != nil {
		r.log.Warn("placement rejected", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	r.nextSeq++
	obj := &Object{
		ID:       uuid.New(),
		Kind:     kind,
		Collider: collider,
		seq:      r.nextSeq,
		span:     r.span(collider),
	}
	obj.Tiles = r.occ.Mark(collider)
	for _, c := range obj.Tiles {
		r.byTile[c] = append(r.byTile[c], obj.ID)
	}
	for _, c := range obj.span {
		r.bySpan[c] = append(r.bySpan[c], obj.ID)
	}
	r.objects[obj.ID] = obj

	r.log.Info("object placed",
		zap.String("kind", kind),
		zap.Stringer("id", obj.ID),
		zap.Int("tiles", len(obj.Tiles)))
	return obj, nil
}

// Remove deletes an object and unmarks its tiles using the geometry it was
// placed with. Tiles still covered by another object or recorded with
// SetObstacle stay blocked.
func (r *Registry) Remove(id uuid.UUID) error {
	obj, ok := r.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.occ.Unmark(obj.Collider)
	for _, c := range obj.Tiles {
		owners := unindex(r.byTile, c, id)
		if _, raw := r.obstacles[c]; owners > 0 || raw {
			r.occ.Set(c, true)
		}
	}
	for _, c := range obj.span {
		unindex(r.bySpan, c, id)
	}
	delete(r.objects, id)

	r.log.Info("object removed", zap.String("kind", obj.Kind), zap.Stringer("id", id))
	return nil
}

// Get returns the object with id.
func (r *Registry) Get(id uuid.UUID) (*Object, bool) {
	obj, ok := r.objects[id]
	return obj, ok
}

// Len returns the number of placed objects.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Objects returns all objects in placement order.
func (r *Registry) Objects() []*Object {
	out := make([]*Object, 0, len(r.objects))
	for _, obj := range r.objects {
		out = append(out, obj)
	}
	slices.SortFunc(out, func(a, b *Object) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return out
}

// ObjectsAt returns the objects blocking tile c in placement order.
func (r *Registry) ObjectsAt(c grid.Coord) []*Object {
	ids := r.byTile[c]
	out := make([]*Object, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.objects[id])
	}
	return out
}

// SetObstacle blocks or clears a tile that belongs to no object. Clearing a
// tile an object still covers only forgets the obstacle.
func (r *Registry) SetObstacle(c grid.Coord, blocked bool) {
	if blocked {
		r.obstacles[c] = struct{}{}
		r.occ.Set(c, true)
		return
	}
	delete(r.obstacles, c)
	if len(r.byTile[c]) == 0 {
		r.occ.Set(c, false)
	}
}

// span returns the tiles under the horizontal bounds of collider.
func (r *Registry) span(collider physics.BoxCollider) []grid.Coord {
	g := r.occ.Grid()
	lo, hi := collider.AABB()
	minC, maxC := g.WorldToCoord(lo), g.WorldToCoord(hi)

	out := make([]grid.Coord, 0, (maxC.X-minC.X+1)*(maxC.Z-minC.Z+1))
	for x := minC.X; x <= maxC.X; x++ {
		for z := minC.Z; z <= maxC.Z; z++ {
			out = append(out, grid.C(x, z))
		}
	}
	return out
}

// unindex drops id from index[c] and returns how many ids remain.
func unindex(index map[grid.Coord][]uuid.UUID, c grid.Coord, id uuid.UUID) int {
	ids := slices.DeleteFunc(index[c], func(other uuid.UUID) bool { return other == id })
	if len(ids) == 0 {
		delete(index, c)
		return 0
	}
	index[c] = ids
	return len(ids)
}

// candidates returns the distinct objects indexed on any of tiles.
func (r *Registry) candidates(tiles []grid.Coord) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, c := range tiles {
		for _, id := range r.bySpan[c] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
