// Package game owns the simulation loop: it wires the registry, the systems
// and telemetry together and advances them one step at a time.
package game

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/metrics"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Hooks lets a host observe entity creation and removal.
type Hooks = systems.Hooks

// EntityView is what a renderer needs to draw one entity.
type EntityView = telemetry.EntityState

// Options configures a Simulation.
type Options struct {
	Seed           int64
	Config         *config.Config // nil = config.Cfg()
	Hooks          Hooks
	LogStats       bool
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	SnapshotDir    string  // bookmark snapshots; empty = OutputDir
	OutputDir      string  // CSV logs; empty disables file output
	Metrics        *metrics.Recorder
	Publish        bool // keep a snapshot for concurrent readers after every step
	StatsCallback  func(telemetry.WindowStats)
}

// Simulation holds the complete world state.
type Simulation struct {
	cfg  *config.Config
	seed int64
	rng  *rand.Rand

	species *systems.SpeciesTable
	reg     *systems.Registry
	index   *systems.SpatialIndex
	ctx     *systems.Context
	areas   []components.Area
	phases  *systems.SystemRegistry

	// Telemetry
	collector     *telemetry.Collector
	lifetimes     *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	metrics       *metrics.Recorder
	logStats      bool
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)

	// Cross-goroutine surface
	cards     chan Card
	publish   bool
	published atomic.Pointer[telemetry.Snapshot]
}

// NewSimulation builds the world and spawns the initial population.
func NewSimulation(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	species, err := systems.NewSpeciesTable(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("building species table: %w", err)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	limits := [components.KindCount]int{
		cfg.Population.Max.Rabbit,
		cfg.Population.Max.Fox,
		cfg.Population.Max.Bush,
		cfg.Population.Max.Grass,
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	snapshotDir := opts.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = opts.OutputDir
	}

	s := &Simulation{
		cfg:           cfg,
		seed:          opts.Seed,
		rng:           rng,
		species:       species,
		reg:           systems.NewRegistry(species, opts.Hooks, limits),
		index:         systems.NewSpatialIndex(cfg.Arena.Width, cfg.Arena.Height, cfg.Arena.CellSize),
		areas:         systems.GenerateAreas(cfg, rng, opts.Seed),
		phases:        systems.NewSystemRegistry(),
		collector:     telemetry.NewCollector(statsWindow),
		lifetimes:     telemetry.NewLifetimeTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:        output,
		metrics:       opts.Metrics,
		logStats:      opts.LogStats,
		snapshotDir:   snapshotDir,
		statsCallback: opts.StatsCallback,
		cards:         make(chan Card, cardQueueSize),
		publish:       opts.Publish,
	}
	s.ctx = systems.NewContext(cfg, s.reg, s.index, species, s.areas, rng)

	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}

	s.spawnInitialPopulation()
	s.metrics.ObservePopulation(s.reg.Population())
	if s.publish {
		s.published.Store(s.Snapshot(nil))
	}
	return s, nil
}

// Close flushes and closes output files.
func (s *Simulation) Close() error {
	return s.output.Close()
}

// Config returns the configuration in use.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Seed returns the RNG seed the world was built from.
func (s *Simulation) Seed() int64 { return s.seed }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int32 { return s.ctx.Tick }

// Now returns the simulated seconds elapsed.
func (s *Simulation) Now() float64 { return s.ctx.Now }

// Areas returns the static areas generated for this world.
func (s *Simulation) Areas() []components.Area { return s.areas }

// Population returns the live count of every kind.
func (s *Simulation) Population() [components.KindCount]int { return s.reg.Population() }

// Phases returns the tick phase metadata.
func (s *Simulation) Phases() *systems.SystemRegistry { return s.phases }

// PerfStats returns timing aggregated over the perf window.
func (s *Simulation) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// Extinct reports whether the registry is empty. The loop has nothing left
// to advance once it is.
func (s *Simulation) Extinct() bool {
	return s.reg.Len() == 0 && s.reg.Pending() == 0
}
