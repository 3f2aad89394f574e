package pathfinding

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/grid"
	"github.com/Faultbox/tycoon/pkg/math"
)

// Cache defaults.
const (
	DefaultCacheCounters = 10000
	DefaultCacheMaxCost  = 1 << 20 // Counted in waypoints
)

// Cache memoises successful searches. Entries are keyed by the start and goal
// tiles and the occupancy revision they were computed against, so any change
// to the occupancy map makes older entries unreachable.
type Cache struct {
	cache *ristretto.Cache[string, Path]
	log   *zap.Logger
}

// NewCache creates a path cache. Non-positive sizes fall back to the defaults.
func NewCache(numCounters, maxCost int64, log *zap.Logger) (*Cache, error) {
	if numCounters <= 0 {
		numCounters = DefaultCacheCounters
	}
	if maxCost <= 0 {
		maxCost = DefaultCacheMaxCost
	}
	if log == nil {
		log = zap.NewNop()
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, Path]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		// Costs are waypoint counts, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating path cache: %w", err)
	}
	return &Cache{cache: cache, log: log.Named("pathcache")}, nil
}

func cacheKey(start, goal grid.Coord, revision uint64) string {
	return fmt.Sprintf("%d,%d|%d,%d|%d", start.X, start.Z, goal.X, goal.Z, revision)
}

// Get returns a copy of a cached path.
func (c *Cache) Get(start, goal grid.Coord, revision uint64) (Path, bool) {
	p, ok := c.cache.Get(cacheKey(start, goal, revision))
	if !ok {
		return Path{}, false
	}
	return clonePath(p), true
}

// Set stores a path. It waits for the write to be applied so an immediate Get
// observes it.
func (c *Cache) Set(start, goal grid.Coord, revision uint64, p Path) {
	cost := int64(len(p.Waypoints))
	if cost == 0 {
		cost = 1
	}
	c.cache.Set(cacheKey(start, goal, revision), clonePath(p), cost)
	c.cache.Wait()
}

// FindPath answers from the cache when possible and otherwise runs f and
// caches a successful result. revision must be the current revision of the
// occupancy map f reads. Failures are never cached.
func (c *Cache) FindPath(f *Finder, revision uint64, start, end math.Vec3) (Path, error) {
	g := f.Grid()
	s, e := g.WorldToCoord(start), g.WorldToCoord(end)

	if p, ok := c.Get(s, e, revision); ok {
		c.log.Debug("cache hit", zap.Stringer("start", s), zap.Stringer("goal", e), zap.Uint64("revision", revision))
		return p, nil
	}

	p, err := f.FindPath(start, end)
	if err != nil {
		return Path{}, err
	}
	c.Set(s, e, revision, p)
	return p, nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.cache.Clear()
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.cache.Close()
}

func clonePath(p Path) Path {
	waypoints := make([]math.Vec3, len(p.Waypoints))
	copy(waypoints, p.Waypoints)
	return Path{Waypoints: waypoints, Cost: p.Cost}
}
