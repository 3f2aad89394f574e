// Package world wires the grid, placement, rooms, pathfinding and NPCs into a
// single simulation driven by Tick.
package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/config"
	"github.com/Faultbox/tycoon/internal/grid"
	"github.com/Faultbox/tycoon/internal/npc"
	"github.com/Faultbox/tycoon/internal/pathfinding"
	"github.com/Faultbox/tycoon/internal/physics"
	"github.com/Faultbox/tycoon/internal/picking"
	"github.com/Faultbox/tycoon/internal/placement"
	"github.com/Faultbox/tycoon/internal/rooms"
	"github.com/Faultbox/tycoon/pkg/math"
)

// NPC errors.
var (
	ErrUnknownNPC   = errors.New("unknown npc")
	ErrDuplicateNPC = errors.New("npc already exists")
)

type pathRequest struct {
	task        *pathfinding.Task
	start, goal grid.Coord
	revision    uint64
}

// World owns all simulation state. Every method must be called from the
// goroutine that calls Tick; only path searches run elsewhere, against
// occupancy snapshots.
type World struct {
	cfg     *config.Config
	grid    grid.Grid
	occ     *grid.Occupancy
	objects *placement.Registry
	rooms   *rooms.Map
	finder  *pathfinding.Finder
	cache   *pathfinding.Cache
	pool    *pathfinding.Pool

	npcs     []*npc.NPC
	byName   map[string]*npc.NPC
	pending  map[string]pathRequest
	failures map[string]error

	log *zap.Logger
}

// New builds a world from cfg and starts its pathfinding workers. The
// workers stop when ctx is cancelled or Close is called.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	g, err := grid.New(cfg.Grid.TileSize)
	if err != nil {
		return nil, err
	}
	cache, err := pathfinding.NewCache(cfg.Pathfinding.CacheCounters, cfg.Pathfinding.CacheMaxCost, log)
	if err != nil {
		return nil, err
	}

	occ := grid.NewOccupancy(g, log)
	w := &World{
		cfg:      cfg,
		grid:     g,
		occ:      occ,
		objects:  placement.NewRegistry(occ, cfg.Placement.Inset, log),
		rooms:    rooms.New(cfg.Rooms.Width, cfg.Rooms.Height, log),
		finder:   newFinder(cfg, g, occ, log),
		cache:    cache,
		pool:     pathfinding.NewPool(ctx, cfg.Pathfinding.Workers, cfg.Pathfinding.QueueSize, log),
		byName:   make(map[string]*npc.NPC),
		pending:  make(map[string]pathRequest),
		failures: make(map[string]error),
		log:      log.Named("world"),
	}
	return w, nil
}

func newFinder(cfg *config.Config, g grid.Grid, blocker pathfinding.Blocker, log *zap.Logger) *pathfinding.Finder {
	return pathfinding.NewFinder(g, blocker,
		pathfinding.WithMaxIterations(cfg.Pathfinding.MaxIterations),
		pathfinding.WithLogger(log))
}

// Close stops the pathfinding workers and releases the path cache.
func (w *World) Close() error {
	err := w.pool.Close()
	w.cache.Close()
	return err
}

// Grid returns the world grid.
func (w *World) Grid() grid.Grid {
	return w.grid
}

// Occupancy returns the live occupancy map.
func (w *World) Occupancy() *grid.Occupancy {
	return w.occ
}

// Rooms returns the room map.
func (w *World) Rooms() *rooms.Map {
	return w.rooms
}

// PlaceObject places a collider if it does not overlap anything.
func (w *World) PlaceObject(kind string, collider physics.BoxCollider) (*placement.Object, error) {
	return w.objects.Place(kind, collider)
}

// RemoveObject removes a placed object and frees its tiles.
func (w *World) RemoveObject(id uuid.UUID) error {
	return w.objects.Remove(id)
}

// Objects returns placed objects in placement order.
func (w *World) Objects() []*placement.Object {
	return w.objects.Objects()
}

// SetObstacle blocks or clears a tile that belongs to no object.
func (w *World) SetObstacle(c grid.Coord, blocked bool) {
	w.objects.SetObstacle(c, blocked)
}

// IsBlocked reports whether tile c is blocked.
func (w *World) IsBlocked(c grid.Coord) bool {
	return w.occ.IsBlocked(c)
}

// PickObject returns the nearest placed object hit by ray.
func (w *World) PickObject(ray picking.Ray) (*placement.Object, float32, bool) {
	objs := w.objects.Objects()
	colliders := make([]physics.BoxCollider, len(objs))
	for i, o := range objs {
		colliders[i] = o.Collider
	}
	i, t, ok := picking.Pick(ray, colliders)
	if !ok {
		return nil, 0, false
	}
	return objs[i], t, true
}

// PickTile returns the ground tile hit by ray.
func (w *World) PickTile(ray picking.Ray) (grid.Coord, bool) {
	p, ok := ray.IntersectPlaneY(0)
	if !ok {
		return grid.Coord{}, false
	}
	return w.grid.WorldToCoord(p), true
}

// FindPath searches synchronously against the live occupancy map. Results are
// cached until the occupancy map changes.
func (w *World) FindPath(start, end math.Vec3) (pathfinding.Path, error) {
	return w.cache.FindPath(w.finder, w.occ.Revision(), start, end)
}

// SetRoomRect assigns an inclusive tile rectangle to room.
func (w *World) SetRoomRect(a, b grid.Coord, room int) {
	w.rooms.SetRoomRect(a, b, room)
}

// WallDirections returns the edges of c that need a wall.
func (w *World) WallDirections(c grid.Coord) rooms.Walls {
	return w.rooms.WallDirections(c)
}

// SpawnNPC adds an idle NPC at position.
func (w *World) SpawnNPC(name string, position math.Vec3) (*npc.NPC, error) {
	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNPC, name)
	}
	n := npc.New(name, position, npc.Params{
		MoveSpeed:       w.cfg.NPC.MoveSpeed,
		RotationSpeed:   w.cfg.NPC.RotationSpeed,
		ArrivalDistance: w.cfg.NPC.ArrivalDistance,
	})
	w.npcs = append(w.npcs, n)
	w.byName[name] = n
	w.log.Info("npc spawned", zap.String("name", name))
	return n, nil
}

// NPC returns the NPC called name.
func (w *World) NPC(name string) (*npc.NPC, bool) {
	n, ok := w.byName[name]
	return n, ok
}

// NPCs returns every NPC in spawn order.
func (w *World) NPCs() []*npc.NPC {
	return w.npcs
}

// Failure returns the error of the last failed path request for name.
func (w *World) Failure(name string) error {
	return w.failures[name]
}

// RequestPath asks for a route from the NPC's position to target. A cached
// route is applied at once; otherwise the search runs on the worker pool
// against a snapshot of the current occupancy and the NPC waits until a
// later Tick picks up the result.
func (w *World) RequestPath(name string, target math.Vec3) error {
	n, ok := w.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNPC, name)
	}

	start, goal := w.grid.WorldToCoord(n.Position), w.grid.WorldToCoord(target)
	rev := w.occ.Revision()
	delete(w.failures, name)

	if p, ok := w.cache.Get(start, goal, rev); ok {
		delete(w.pending, name)
		n.SetPath(p.Waypoints)
		return nil
	}

	snapshot := w.occ.Snapshot()
	task, err := w.pool.Submit(newFinder(w.cfg, w.grid, snapshot, w.log), n.Position, target)
	if err != nil {
		return fmt.Errorf("requesting path for %s: %w", name, err)
	}

	n.ClearPath()
	n.State = npc.Waiting
	w.pending[name] = pathRequest{task: task, start: start, goal: goal, revision: rev}
	w.log.Debug("path requested",
		zap.String("npc", name),
		zap.Stringer("start", start),
		zap.Stringer("goal", goal))
	return nil
}

// Tick polls finished path requests once and advances every NPC by dt seconds.
func (w *World) Tick(dt float32) {
	for _, n := range w.npcs {
		req, ok := w.pending[n.Name]
		if !ok {
			continue
		}
		res, done := req.task.Poll()
		if !done {
			continue
		}
		delete(w.pending, n.Name)

		if res.Err != nil {
			w.failures[n.Name] = res.Err
			n.ClearPath()
			w.log.Warn("path request failed",
				zap.String("npc", n.Name),
				zap.Stringer("start", req.start),
				zap.Stringer("goal", req.goal),
				zap.Error(res.Err))
			continue
		}
		w.cache.Set(req.start, req.goal, req.revision, res.Path)
		n.SetPath(res.Path.Waypoints)
	}

	for _, n := range w.npcs {
		n.Update(dt)
	}
}

// Pending returns the number of path requests still in flight.
func (w *World) Pending() int {
	return len(w.pending)
}

// Settled reports whether no NPC is walking or waiting for a path.
func (w *World) Settled() bool {
	return len(w.pending) == 0 && !w.walking()
}

func (w *World) walking() bool {
	for _, n := range w.npcs {
		if n.State == npc.Walking {
			return true
		}
	}
	return false
}

// awaitPending blocks until the first pending request in spawn order is done.
func (w *World) awaitPending(ctx context.Context) error {
	for _, n := range w.npcs {
		req, ok := w.pending[n.Name]
		if !ok {
			continue
		}
		select {
		case <-req.task.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
