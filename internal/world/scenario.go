package world

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/tycoon/internal/grid"
	"github.com/Faultbox/tycoon/internal/npc"
	"github.com/Faultbox/tycoon/internal/physics"
	"github.com/Faultbox/tycoon/pkg/math"
)

// Scenario is a scripted layout: objects to place, raw obstacles, rooms and
// NPCs with optional destinations.
type Scenario struct {
	Name      string       `yaml:"name"`
	Objects   []ObjectSpec `yaml:"objects"`
	Obstacles [][2]int     `yaml:"obstacles"` // Tiles blocked without an object
	Rooms     []RoomSpec   `yaml:"rooms"`
	NPCs      []NPCSpec    `yaml:"npcs"`
}

// ObjectSpec describes a box to place.
type ObjectSpec struct {
	Kind      string     `yaml:"kind"`
	Center    [3]float32 `yaml:"center"`
	RotationY float32    `yaml:"rotation_y"` // Degrees
	Scale     [3]float32 `yaml:"scale"`
}

// Collider builds the box collider the object is placed with.
func (o ObjectSpec) Collider() physics.BoxCollider {
	rad := o.RotationY * gomath.Pi / 180
	return physics.NewBoxCollider(vec3(o.Center), math.QuatFromRotationY(rad), vec3(o.Scale))
}

// RoomSpec assigns an inclusive tile rectangle to a room.
type RoomSpec struct {
	ID   int    `yaml:"id"`
	From [2]int `yaml:"from"`
	To   [2]int `yaml:"to"`
}

// NPCSpec spawns an NPC and optionally sends it somewhere.
type NPCSpec struct {
	Name     string      `yaml:"name"`
	Position [3]float32  `yaml:"position"`
	Target   *[3]float32 `yaml:"target"`
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a YAML scenario. Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for i, n := range sc.NPCs {
		if n.Name == "" {
			return nil, fmt.Errorf("npc %d has no name", i)
		}
	}
	return &sc, nil
}

// Report summarises a scenario run.
type Report struct {
	Name     string
	Ticks    int
	SimTime  float32 // Seconds
	Placed   int
	Rejected int
	Blocked  int // Blocked tiles at the end of the run

	Arrived   []string
	Failed    []string
	Idle      []string // Never given a destination
	Unsettled []string // Still moving when the tick limit was hit
}

// Run applies sc to the world and ticks until every NPC has settled or the
// configured tick limit is reached. Rejected placements are counted, not
// fatal.
func (w *World) Run(ctx context.Context, sc *Scenario) (Report, error) {
	report := Report{Name: sc.Name}

	for _, o := range sc.Objects {
		if _, err := w.PlaceObject(o.Kind, o.Collider()); err != nil {
			report.Rejected++
			continue
		}
		report.Placed++
	}
	for _, c := range sc.Obstacles {
		w.SetObstacle(grid.C(c[0], c[1]), true)
	}
	for _, r := range sc.Rooms {
		w.SetRoomRect(grid.C(r.From[0], r.From[1]), grid.C(r.To[0], r.To[1]), r.ID)
	}

	targeted := make(map[string]bool)
	for _, s := range sc.NPCs {
		if _, err := w.SpawnNPC(s.Name, vec3(s.Position)); err != nil {
			return report, err
		}
		if s.Target == nil {
			continue
		}
		targeted[s.Name] = true
		if err := w.RequestPath(s.Name, vec3(*s.Target)); err != nil {
			return report, err
		}
	}

	dt := 1 / float32(w.cfg.Sim.TickRate)
	for report.Ticks < w.cfg.Sim.MaxTicks && !w.Settled() {
		// Nothing to animate until a search finishes.
		if !w.walking() {
			if err := w.awaitPending(ctx); err != nil {
				return report, err
			}
		}
		w.Tick(dt)
		report.Ticks++
	}
	report.SimTime = float32(report.Ticks) * dt
	report.Blocked = len(w.occ.Blocked())

	for _, n := range w.npcs {
		switch {
		case w.failures[n.Name] != nil:
			report.Failed = append(report.Failed, n.Name)
		case n.Arrived():
			report.Arrived = append(report.Arrived, n.Name)
		case !targeted[n.Name] && n.State == npc.Idle:
			report.Idle = append(report.Idle, n.Name)
		default:
			report.Unsettled = append(report.Unsettled, n.Name)
		}
	}

	w.log.Info("scenario finished",
		zap.String("name", sc.Name),
		zap.Int("ticks", report.Ticks),
		zap.Int("placed", report.Placed),
		zap.Int("rejected", report.Rejected),
		zap.Strings("arrived", report.Arrived),
		zap.Strings("failed", report.Failed))
	return report, nil
}
