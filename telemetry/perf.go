package telemetry

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step, in execution order.
const (
	PhaseSpatial   = "spatial"
	PhaseEntities  = "entities"
	PhaseFlocking  = "flocking"
	PhaseCleanup   = "cleanup"
	PhaseSpawn     = "spawn"
	PhaseTelemetry = "telemetry"
)

// Phases lists every phase in execution order.
var Phases = []string{PhaseSpatial, PhaseEntities, PhaseFlocking, PhaseCleanup, PhaseSpawn, PhaseTelemetry}

// PerfSample is the wall-clock timing of one tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector keeps the most recent tick samples in a ring.
type PerfCollector struct {
	ring []PerfSample
	next int
	full bool

	cur   PerfSample
	start time.Time
	mark  time.Time
	phase string

	now func() time.Time
}

// NewPerfCollector keeps the last window ticks, 60 when window < 1.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]PerfSample, window), now: time.Now}
}

// StartTick opens a new sample.
func (p *PerfCollector) StartTick() {
	p.start = p.now()
	p.cur = PerfSample{Phases: make(map[string]time.Duration, len(Phases))}
	p.phase = ""
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phase, p.mark = phase, now
}

// EndTick closes the sample, stores it in the ring and returns it.
func (p *PerfCollector) EndTick() PerfSample {
	now := p.now()
	p.closePhase(now)
	p.cur.TickDuration = now.Sub(p.start)

	p.ring[p.next] = p.cur
	p.next++
	if p.next == len(p.ring) {
		p.next, p.full = 0, true
	}
	return p.cur
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.cur.Phases[p.phase] += now.Sub(p.mark)
	}
}

func (p *PerfCollector) samples() []PerfSample {
	if p.full {
		return p.ring
	}
	return p.ring[:p.next]
}

// PerfStats summarises the samples in the ring.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64
	PhasePct        map[string]float64 // share of the mean tick, in percent
}

// Stats summarises the current window. An empty window yields zero values.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{PhasePct: make(map[string]float64)}
	ss := p.samples()
	if len(ss) == 0 {
		return out
	}

	ticks := make([]float64, len(ss))
	phaseSum := make(map[string]float64)
	for i, s := range ss {
		ticks[i] = float64(s.TickDuration)
		for name, d := range s.Phases {
			phaseSum[name] += float64(d)
		}
	}

	mean := stat.Mean(ticks, nil)
	out.AvgTickDuration = time.Duration(math.Round(mean))
	out.MinTickDuration = time.Duration(floats.Min(ticks))
	out.MaxTickDuration = time.Duration(floats.Max(ticks))
	if mean > 0 {
		out.TicksPerSecond = float64(time.Second) / mean
		for name, sum := range phaseSum {
			out.PhasePct[name] = sum / float64(len(ss)) / mean * 100
		}
	}
	return out
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", math.Round(pct*10)/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	SpatialPct   float64 `csv:"spatial_pct"`
	EntitiesPct  float64 `csv:"entities_pct"`
	FlockingPct  float64 `csv:"flocking_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	SpawnPct     float64 `csv:"spawn_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		SpatialPct:   s.PhasePct[PhaseSpatial],
		EntitiesPct:  s.PhasePct[PhaseEntities],
		FlockingPct:  s.PhasePct[PhaseFlocking],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		SpawnPct:     s.PhasePct[PhaseSpawn],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
