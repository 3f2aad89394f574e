package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagScenario = flag.String("scenario", "", "Path to scenario file")
	flagTileSize = flag.Float64("tile-size", 0, "Grid tile size in world units")
	flagWorkers  = flag.Int("workers", 0, "Pathfinding worker count")
	flagTicks    = flag.Int("ticks", 0, "Maximum simulation ticks")
	flagWrite    = flag.Bool("write-config", false, "Write the effective config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfig reports whether --write-config was given.
func WriteConfig() bool {
	return *flagWrite
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScenario != "" {
		cfg.Sim.Scenario = *flagScenario
	}
	if *flagTileSize > 0 {
		cfg.Grid.TileSize = float32(*flagTileSize)
	}
	if *flagWorkers > 0 {
		cfg.Pathfinding.Workers = *flagWorkers
	}
	if *flagTicks > 0 {
		cfg.Sim.MaxTicks = *flagTicks
	}
}
