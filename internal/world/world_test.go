package world

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newWorld(t *testing.T) *World {
	t.Helper()
	cfg := config.Default()
	cfg.Grid.TileSize = 1
	cfg.NPC.MoveSpeed = 10
	cfg.Sim.MaxTicks = 2000

	w, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// wall spans tile column 5 for z in [-5, 4].
func wall() physics.BoxCollider {
	return physics.NewBoxCollider(
		math.Vec3{X: 5.5, Y: 0.5, Z: 0},
		math.QuatIdentity(),
		math.Vec3{X: 1, Y: 1, Z: 10},
	)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.TileSize = 0
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestPlaceAndRemoveUpdatePaths(t *testing.T) {
	w := newWorld(t)
	start, end := math.Vec3{X: 0.5, Z: 0.5}, math.Vec3{X: 10.5, Z: 0.5}

	direct, err := w.FindPath(start, end)
	require.NoError(t, err)
	assert.Equal(t, 10, direct.Cost)

	obj, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)
	for z := -5; z <= 4; z++ {
		assert.True(t, w.IsBlocked(grid.C(5, z)), "z=%d", z)
	}
	assert.False(t, w.IsBlocked(grid.C(5, 5)))

	detour, err := w.FindPath(start, end)
	require.NoError(t, err)
	assert.Greater(t, detour.Cost, direct.Cost, "the cached direct route must not survive a placement")

	require.NoError(t, w.RemoveObject(obj.ID))
	again, err := w.FindPath(start, end)
	require.NoError(t, err)
	assert.Equal(t, direct, again)

	_, err = w.PlaceObject("wall", wall())
	require.NoError(t, err)
	_, err = w.PlaceObject("crate", physics.NewBoxCollider(math.Vec3{X: 5.5, Y: 0.5, Z: 1}, math.QuatIdentity(), math.Splat(1)))
	assert.ErrorIs(t, err, placement.ErrOverlap)
	assert.Len(t, w.Objects(), 1)
}

func TestFindPathBlockedGoal(t *testing.T) {
	w := newWorld(t)
	_, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)

	_, err = w.FindPath(math.Vec3{X: 0.5}, math.Vec3{X: 5.5, Z: 0.5})
	assert.ErrorIs(t, err, pathfinding.ErrBlocked)
	assert.ErrorIs(t, err, pathfinding.ErrPathfinding)
}

func TestRequestPathAndTick(t *testing.T) {
	w := newWorld(t)
	_, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)

	bob, err := w.SpawnNPC("bob", math.Vec3{X: 0.5, Z: 0.5})
	require.NoError(t, err)
	_, err = w.SpawnNPC("bob", math.Vec3{})
	assert.ErrorIs(t, err, ErrDuplicateNPC)

	require.NoError(t, w.RequestPath("bob", math.Vec3{X: 10.5, Z: 0.5}))
	assert.Equal(t, npc.Waiting, bob.State)
	assert.Equal(t, 1, w.Pending())

	for i := 0; i < 2000 && !w.Settled(); i++ {
		if !w.walking() {
			require.NoError(t, w.awaitPending(context.Background()))
		}
		w.Tick(1.0 / 60)
	}

	require.True(t, w.Settled())
	assert.True(t, bob.Arrived())
	assert.Equal(t, npc.Idle, bob.State)
	assert.InDelta(t, 10.5, bob.Position.X, 0.1)
	assert.InDelta(t, 0.5, bob.Position.Z, 0.1)
	assert.NoError(t, w.Failure("bob"))

	assert.ErrorIs(t, w.RequestPath("alice", math.Vec3{}), ErrUnknownNPC)
}

func TestRequestPathUsesCache(t *testing.T) {
	w := newWorld(t)
	_, err := w.FindPath(math.Vec3{X: 0.5, Z: 0.5}, math.Vec3{X: 3.5, Z: 2.5})
	require.NoError(t, err)

	bob, err := w.SpawnNPC("bob", math.Vec3{X: 0.5, Z: 0.5})
	require.NoError(t, err)
	require.NoError(t, w.RequestPath("bob", math.Vec3{X: 3.5, Z: 2.5}))

	assert.Equal(t, npc.Walking, bob.State, "a cached route applies immediately")
	assert.Zero(t, w.Pending())
}

func TestFailedRequestLeavesNPCIdle(t *testing.T) {
	w := newWorld(t)
	_, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)

	bob, err := w.SpawnNPC("bob", math.Vec3{X: 0.5, Z: 0.5})
	require.NoError(t, err)
	require.NoError(t, w.RequestPath("bob", math.Vec3{X: 5.5, Z: 0.5}))

	require.NoError(t, w.awaitPending(context.Background()))
	w.Tick(1.0 / 60)

	assert.Equal(t, npc.Idle, bob.State)
	assert.Empty(t, bob.Path())
	assert.ErrorIs(t, w.Failure("bob"), pathfinding.ErrBlocked)
	assert.True(t, w.Settled())
}

func TestInFlightRequestUsesSnapshot(t *testing.T) {
	w := newWorld(t)
	start, end := math.Vec3{X: 0.5, Z: 0.5}, math.Vec3{X: 10.5, Z: 0.5}
	from, to := w.Grid().WorldToCoord(start), w.Grid().WorldToCoord(end)

	bob, err := w.SpawnNPC("bob", start)
	require.NoError(t, err)
	requested := w.Occupancy().Revision()
	require.NoError(t, w.RequestPath("bob", end))

	// Block the straight route before the result is picked up.
	_, err = w.PlaceObject("wall", wall())
	require.NoError(t, err)
	w.SetObstacle(grid.C(3, 0), true)
	require.Greater(t, w.Occupancy().Revision(), requested)

	require.NoError(t, w.awaitPending(context.Background()))
	w.Tick(1.0 / 60)
	require.NoError(t, w.Failure("bob"))
	require.Equal(t, npc.Walking, bob.State)

	cached, ok := w.cache.Get(from, to, requested)
	require.True(t, ok, "the result is cached under the revision it was computed on")
	assert.Equal(t, 10, cached.Cost, "the search ran on the layout at request time")
	assert.Equal(t, cached.Waypoints, bob.Path())

	_, ok = w.cache.Get(from, to, w.Occupancy().Revision())
	assert.False(t, ok)
	live, err := w.FindPath(start, end)
	require.NoError(t, err)
	assert.Greater(t, live.Cost, cached.Cost, "the live layout needs a detour")
}

func TestObstacleSurvivesObjectRemoval(t *testing.T) {
	w := newWorld(t)
	obj, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)
	w.SetObstacle(grid.C(5, 0), true)

	require.NoError(t, w.RemoveObject(obj.ID))
	assert.True(t, w.IsBlocked(grid.C(5, 0)))
	assert.False(t, w.IsBlocked(grid.C(5, 1)))
}

func TestPicking(t *testing.T) {
	w := newWorld(t)
	obj, err := w.PlaceObject("wall", wall())
	require.NoError(t, err)

	down := math.Vec3{Y: -1}
	got, d, ok := w.PickObject(picking.NewRay(math.Vec3{X: 5.5, Y: 10, Z: 2}, down))
	require.True(t, ok)
	assert.Equal(t, obj.ID, got.ID)
	assert.InDelta(t, 9, d, 1e-4)

	_, _, ok = w.PickObject(picking.NewRay(math.Vec3{X: 2, Y: 10}, down))
	assert.False(t, ok)

	c, ok := w.PickTile(picking.NewRay(math.Vec3{X: 2.5, Y: 10, Z: -3.5}, down))
	require.True(t, ok)
	assert.Equal(t, grid.C(2, -4), c)
}

func TestRoomsThroughWorld(t *testing.T) {
	w := newWorld(t)
	w.SetRoomRect(grid.C(0, 0), grid.C(2, 2), 1)

	assert.Equal(t, rooms.Walls{rooms.Left: true, rooms.Down: true}, w.WallDirections(grid.C(0, 0)))
	assert.Equal(t, rooms.Walls{rooms.Right: true, rooms.Up: true}, w.WallDirections(grid.C(2, 2)))
	assert.Equal(t, rooms.Walls{}, w.WallDirections(grid.C(1, 1)))
}

const officeScenario = `
name: office
objects:
  - kind: wall
    center: [5.5, 0.5, 0]
    scale: [1, 1, 10]
  - kind: crate
    center: [5.5, 0.5, 2]
    scale: [1, 1, 1]
  - kind: desk
    center: [8.5, 0.5, -3]
    rotation_y: 90
    scale: [2, 1, 1]
obstacles:
  - [0, 3]
rooms:
  - id: 1
    from: [0, 0]
    to: [4, 4]
npcs:
  - name: bob
    position: [0.5, 0, 0.5]
    target: [10.5, 0, 0.5]
  - name: carl
    position: [1.5, 0, 1.5]
    target: [5.5, 0, 0.5]
  - name: dana
    position: [2.5, 0, 2.5]
`

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(officeScenario))
	require.NoError(t, err)
	require.Len(t, sc.Objects, 3)
	require.NotNil(t, sc.NPCs[0].Target)
	assert.Nil(t, sc.NPCs[2].Target)

	w := newWorld(t)
	report, err := w.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, "office", report.Name)
	assert.Equal(t, 2, report.Placed)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, []string{"bob"}, report.Arrived)
	assert.Equal(t, []string{"carl"}, report.Failed)
	assert.Equal(t, []string{"dana"}, report.Idle)
	assert.Empty(t, report.Unsettled)
	assert.Positive(t, report.Ticks)
	assert.Equal(t, 10+2+1, report.Blocked)
	assert.True(t, w.IsBlocked(grid.C(0, 3)))
	assert.True(t, w.WallDirections(grid.C(4, 0))[rooms.Right])
}

func TestRunStopsAtTickLimit(t *testing.T) {
	w := newWorld(t)
	w.cfg.Sim.MaxTicks = 3

	sc := &Scenario{NPCs: []NPCSpec{{Name: "bob", Target: &[3]float32{40.5, 0, 0.5}}}}
	report, err := w.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Ticks)
	assert.Equal(t, []string{"bob"}, report.Unsettled)
}

func TestParseScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("objects:\n  - kind: desk\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = ParseScenario([]byte("npcs:\n  - position: [0, 0, 0]\n"))
	assert.Error(t, err, "npcs need a name")

	sc, err := ParseScenario(nil)
	require.NoError(t, err)
	assert.Empty(t, sc.Objects)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.yaml")
	require.NoError(t, os.WriteFile(path, []byte(officeScenario), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "office", sc.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
