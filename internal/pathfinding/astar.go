// Package pathfinding implements A* search over a tile occupancy map.
package pathfinding

import (
	"container/heap"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/grid"
	"github.com/Faultbox/tycoon/pkg/math"
)

// Movement costs.
const (
	StraightCost = 1
	DiagonalCost = 2
)

// DefaultMaxIterations bounds the number of expanded nodes per search.
const DefaultMaxIterations = 100000

// Blocker reports tile occupancy. *grid.Occupancy implements it.
type Blocker interface {
	IsBlocked(c grid.Coord) bool
}

// Path is a route of tile centers from start to goal.
// Treat it as read-only once returned.
type Path struct {
	Waypoints []math.Vec3
	// Cost is the step cost of the route before corner optimization.
	Cost int
}

// Len returns the number of waypoints.
func (p Path) Len() int {
	return len(p.Waypoints)
}

// pathNode is a node in the A* open set.
type pathNode struct {
	coord  grid.Coord
	g      int // Cost from start
	h      int // Heuristic to goal
	f      int // g + h
	seq    int // Insertion order, last tie-breaker
	parent *pathNode
	index  int // Index in heap
	closed bool
}

// pathHeap implements a priority queue ordered by f, then h, then seq.
type pathHeap []*pathNode

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	return h[i].seq < h[j].seq
}
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	node := x.(*pathNode)
	node.index = len(*h)
	*h = append(*h, node)
}

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

type direction struct {
	dx, dz int
	cost   int
}

// Neighbour order is fixed so equal-cost searches give identical routes.
var directions = [8]direction{
	{-1, 0, StraightCost},  // left
	{1, 0, StraightCost},   // right
	{0, -1, StraightCost},  // down
	{0, 1, StraightCost},   // up
	{-1, -1, DiagonalCost}, // down-left
	{1, -1, DiagonalCost},  // down-right
	{-1, 1, DiagonalCost},  // up-left
	{1, 1, DiagonalCost},   // up-right
}

// Finder runs A* searches on a grid.
type Finder struct {
	grid          grid.Grid
	blocker       Blocker
	maxIterations int
	log           *zap.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(f *Finder) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFinder creates a pathfinder reading occupancy from blocker.
func NewFinder(g grid.Grid, blocker Blocker, opts ...Option) *Finder {
	f := &Finder{
		grid:          g,
		blocker:       blocker,
		maxIterations: DefaultMaxIterations,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("pathfinding")
	return f
}

// Grid returns the grid used for coordinate conversion.
func (f *Finder) Grid() grid.Grid {
	return f.grid
}

// FindPath finds a route between two world positions. The returned waypoints
// are tile centers with redundant corners removed by OptimizeCorners.
func (f *Finder) FindPath(start, end math.Vec3) (Path, error) {
	coords, cost, err := f.FindCoords(f.grid.WorldToCoord(start), f.grid.WorldToCoord(end))
	if err != nil {
		return Path{}, err
	}

	waypoints := make([]math.Vec3, len(coords))
	for i, c := range coords {
		waypoints[i] = f.grid.CoordToTile(c)
	}
	return Path{Waypoints: OptimizeCorners(waypoints), Cost: cost}, nil
}

// FindCoords finds a route between two tiles. Consecutive coordinates are
// 8-connected neighbours. The second result is the total step cost.
func (f *Finder) FindCoords(start, goal grid.Coord) ([]grid.Coord, int, error) {
	coords, cost, _, err := f.search(start, goal)
	return coords, cost, err
}

func (f *Finder) search(start, goal grid.Coord) ([]grid.Coord, int, int, error) {
	if f.blocker.IsBlocked(start) || f.blocker.IsBlocked(goal) {
		return nil, 0, 0, fmt.Errorf("path %v -> %v: %w", start, goal, ErrBlocked)
	}

	openSet := &pathHeap{}
	nodes := make(map[grid.Coord]*pathNode)
	seq := 0

	startNode := &pathNode{coord: start, h: heuristic(start, goal)}
	startNode.f = startNode.h
	heap.Push(openSet, startNode)
	nodes[start] = startNode

	expanded := 0
	for openSet.Len() > 0 {
		if expanded >= f.maxIterations {
			f.log.Debug("iteration limit reached",
				zap.Stringer("start", start),
				zap.Stringer("goal", goal),
				zap.Int("expanded", expanded))
			return nil, 0, expanded, fmt.Errorf("path %v -> %v: %w", start, goal, ErrIterationLimit)
		}

		current := heap.Pop(openSet).(*pathNode)
		expanded++

		if current.coord == goal {
			return reconstruct(current), current.g, expanded, nil
		}
		current.closed = true

		for _, dir := range directions {
			next := current.coord.Add(dir.dx, dir.dz)
			if f.blocker.IsBlocked(next) {
				continue
			}

			g := current.g + dir.cost
			neighbor, exists := nodes[next]
			if !exists {
				seq++
				neighbor = &pathNode{
					coord:  next,
					g:      g,
					h:      heuristic(next, goal),
					seq:    seq,
					parent: current,
				}
				neighbor.f = neighbor.g + neighbor.h
				nodes[next] = neighbor
				heap.Push(openSet, neighbor)
			} else if !neighbor.closed && g < neighbor.g {
				neighbor.g = g
				neighbor.f = g + neighbor.h
				neighbor.parent = current
				heap.Fix(openSet, neighbor.index)
			}
		}
	}

	return nil, 0, expanded, fmt.Errorf("path %v -> %v: %w", start, goal, ErrNoPath)
}

// heuristic is the octile distance for the cost model above.
func heuristic(a, b grid.Coord) int {
	dx := abs(b.X - a.X)
	dz := abs(b.Z - a.Z)
	return StraightCost*(dx+dz) + (DiagonalCost-2*StraightCost)*min(dx, dz)
}

func reconstruct(node *pathNode) []grid.Coord {
	var path []grid.Coord
	for node != nil {
		path = append(path, node.coord)
		node = node.parent
	}
	// Reverse path (it's built from goal to start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
