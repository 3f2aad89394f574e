// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all simulation settings.
type Config struct {
	Grid        GridConfig        `yaml:"grid"`
	Rooms       RoomsConfig       `yaml:"rooms"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Placement   PlacementConfig   `yaml:"placement"`
	NPC         NPCConfig         `yaml:"npc"`
	Sim         SimConfig         `yaml:"sim"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// GridConfig holds world grid settings.
type GridConfig struct {
	TileSize float32 `yaml:"tile_size"` // World units per tile edge
}

// RoomsConfig holds the room map bounds, in tiles.
type RoomsConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PathfindingConfig holds search and worker pool settings.
type PathfindingConfig struct {
	MaxIterations int   `yaml:"max_iterations"`
	Workers       int   `yaml:"workers"`
	QueueSize     int   `yaml:"queue_size"`
	CacheCounters int64 `yaml:"cache_counters"`
	CacheMaxCost  int64 `yaml:"cache_max_cost"`
}

// PlacementConfig holds object placement settings.
type PlacementConfig struct {
	Inset float32 `yaml:"inset"`
}

// NPCConfig holds NPC movement tuning.
type NPCConfig struct {
	MoveSpeed       float32 `yaml:"move_speed"`
	RotationSpeed   float32 `yaml:"rotation_speed"`
	ArrivalDistance float32 `yaml:"arrival_distance"`
}

// SimConfig holds headless run settings.
type SimConfig struct {
	TickRate int    `yaml:"tick_rate"` // Ticks per simulated second
	MaxTicks int    `yaml:"max_ticks"`
	Scenario string `yaml:"scenario"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			TileSize: 0.2,
		},
		Rooms: RoomsConfig{
			Width:  50,
			Height: 50,
		},
		Pathfinding: PathfindingConfig{
			MaxIterations: 100000,
			Workers:       2,
			QueueSize:     64,
			CacheCounters: 10000,
			CacheMaxCost:  1 << 20,
		},
		Placement: PlacementConfig{
			Inset: -0.1,
		},
		NPC: NPCConfig{
			MoveSpeed:       2.0,
			RotationSpeed:   8.0,
			ArrivalDistance: 0.1,
		},
		Sim: SimConfig{
			TickRate: 60,
			MaxTicks: 3600,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Grid.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("grid.tile_size must be positive, got %v", c.Grid.TileSize))
	}
	if c.Rooms.Width <= 0 || c.Rooms.Height <= 0 {
		errs = append(errs, fmt.Errorf("rooms bounds must be positive, got %dx%d", c.Rooms.Width, c.Rooms.Height))
	}
	if c.Pathfinding.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("pathfinding.max_iterations must be positive, got %d", c.Pathfinding.MaxIterations))
	}
	if c.Pathfinding.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pathfinding.workers must be positive, got %d", c.Pathfinding.Workers))
	}
	if c.Sim.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("sim.tick_rate must be positive, got %d", c.Sim.TickRate))
	}
	return errors.Join(errs...)
}
