// Package main runs a tycoon scenario headless and reports the outcome.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/tycoon/internal/config"
	"github.com/Faultbox/tycoon/internal/logger"
	"github.com/Faultbox/tycoon/internal/world"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if config.WriteConfig() {
		if err := cfg.Save(); err != nil {
			logger.Error("saving config", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config written", zap.String("dir", config.ConfigDir()))
		return
	}

	logger.Info("=== Tycoon ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Sim.Scenario == "" {
		return errors.New("no scenario given; pass -scenario or set sim.scenario")
	}
	sc, err := world.LoadScenario(cfg.Sim.Scenario)
	if err != nil {
		return err
	}

	w, err := world.New(ctx, cfg, logger.Log)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}
	defer w.Close()

	report, err := w.Run(ctx, sc)
	if err != nil {
		return fmt.Errorf("running scenario: %w", err)
	}

	for _, name := range report.Failed {
		logger.Warn("npc could not reach its target",
			zap.String("npc", name),
			zap.Error(w.Failure(name)))
	}
	logger.Info("scenario summary",
		zap.String("name", report.Name),
		zap.Int("ticks", report.Ticks),
		zap.Float32("sim_seconds", report.SimTime),
		zap.Int("placed", report.Placed),
		zap.Int("rejected", report.Rejected),
		zap.Int("blocked_tiles", report.Blocked),
		zap.Int("arrived", len(report.Arrived)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("idle", len(report.Idle)),
		zap.Int("unsettled", len(report.Unsettled)))
	return nil
}
