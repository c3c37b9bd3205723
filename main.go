package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/server"
	"github.com/pthm-cable/ecosim/systems"
)

func main() {
	// .env supplies ECOSIM_* defaults; a missing file is fine
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}

	// CLI flags
	configPath := flag.String("config", envString("ECOSIM_CONFIG", ""), "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", envBool("ECOSIM_LOG_STATS", false), "Output stats via slog")
	statsWindow := flag.Float64("stats-window", envFloat("ECOSIM_STATS_WINDOW", 0), "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", envString("ECOSIM_SNAPSHOT_DIR", ""), "Directory for bookmark snapshots (empty = output dir)")
	outputDir := flag.String("output-dir", envString("ECOSIM_OUTPUT_DIR", ""), "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", envInt64("ECOSIM_SEED", 0), "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", int(envInt64("ECOSIM_MAX_TICKS", 0)), "Stop after N ticks (0 = unlimited)")
	dt := flag.Float64("dt", envFloat("ECOSIM_DT", 0), "Seconds per tick (0 = use config)")
	speed := flag.Float64("speed", envFloat("ECOSIM_SPEED", 0), "Simulated seconds per wall second (0 = as fast as possible)")
	listen := flag.String("listen", envString("ECOSIM_LISTEN", ""), "Observation server address (empty = config server.listen)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	step := cfg.Physics.DT
	if *dt > 0 {
		step = *dt
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	serving := cfg.Server.Listen != ""

	var rec *metrics.Recorder
	if serving {
		rec = metrics.New(systems.NewSystemRegistry())
	}

	sim, err := game.NewSimulation(game.Options{
		Seed:           rngSeed,
		Config:         cfg,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		Metrics:        rec,
		Publish:        serving,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverDone := make(chan error, 1)
	if serving {
		srv := server.New(sim, rec, cfg.Server)
		go func() { serverDone <- srv.Run(ctx) }()
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"dt", step,
		"max_ticks", *maxTicks,
		"listen", cfg.Server.Listen,
	)

	run(ctx, sim, step, *speed, *maxTicks)
	stop()

	if serving {
		if err := <-serverDone; err != nil {
			slog.Error("server failed", "error", err)
			sim.Close()
			os.Exit(1)
		}
	}
}

// run advances the simulation until ctx is done, max ticks pass or both
// animals and plants are gone. speed > 0 paces steps against the wall clock.
func run(ctx context.Context, sim *game.Simulation, dt, speed float64, maxTicks int) {
	var pace <-chan time.Time
	if speed > 0 {
		ticker := time.NewTicker(time.Duration(dt / speed * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				slog.Info("interrupted", "tick", sim.Tick())
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			slog.Info("interrupted", "tick", sim.Tick())
			return
		}

		sim.Advance(dt)

		if maxTicks > 0 && int(sim.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.Tick())
			return
		}
		if sim.Extinct() {
			slog.Info("world is empty", "tick", sim.Tick(), "sim_time", sim.Now())
			return
		}
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return def
}
