package telemetry

import (
	"testing"
	"time"
)

// fakeClock advances by the queued steps, one per call.
type fakeClock struct {
	t     time.Time
	steps []time.Duration
}

func (c *fakeClock) now() time.Time {
	if len(c.steps) > 0 {
		c.t = c.t.Add(c.steps[0])
		c.steps = c.steps[1:]
	}
	return c.t
}

// tick records one tick with the given phase durations.
func tick(p *PerfCollector, clk *fakeClock, spatial, entities time.Duration) PerfSample {
	clk.steps = append(clk.steps, 0, 0, spatial, entities)
	p.StartTick()
	p.StartPhase(PhaseSpatial)
	p.StartPhase(PhaseEntities)
	return p.EndTick()
}

func newTestCollector(window int) (*PerfCollector, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewPerfCollector(window)
	p.now = clk.now
	return p, clk
}

func TestPerfCollectorSample(t *testing.T) {
	p, clk := newTestCollector(4)

	s := tick(p, clk, time.Millisecond, 3*time.Millisecond)

	if got, want := s.TickDuration, 4*time.Millisecond; got != want {
		t.Errorf("tick = %v, want %v", got, want)
	}
	if got := s.Phases[PhaseSpatial]; got != time.Millisecond {
		t.Errorf("spatial = %v, want 1ms", got)
	}
	if got := s.Phases[PhaseEntities]; got != 3*time.Millisecond {
		t.Errorf("entities = %v, want 3ms", got)
	}
}

func TestPerfCollectorStats(t *testing.T) {
	p, clk := newTestCollector(4)
	tick(p, clk, time.Millisecond, time.Millisecond)
	tick(p, clk, time.Millisecond, 5*time.Millisecond)

	s := p.Stats()
	if s.AvgTickDuration != 4*time.Millisecond {
		t.Errorf("avg = %v, want 4ms", s.AvgTickDuration)
	}
	if s.MinTickDuration != 2*time.Millisecond || s.MaxTickDuration != 6*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 2ms/6ms", s.MinTickDuration, s.MaxTickDuration)
	}
	if s.TicksPerSecond != 250 {
		t.Errorf("ticks/s = %v, want 250", s.TicksPerSecond)
	}
	if got := s.PhasePct[PhaseSpatial]; got != 25 {
		t.Errorf("spatial pct = %v, want 25", got)
	}
	if got := s.PhasePct[PhaseEntities]; got != 75 {
		t.Errorf("entities pct = %v, want 75", got)
	}
}

func TestPerfCollectorWindowDropsOldest(t *testing.T) {
	p, clk := newTestCollector(2)
	tick(p, clk, 100*time.Millisecond, 0)
	tick(p, clk, time.Millisecond, 0)
	tick(p, clk, 3*time.Millisecond, 0)

	if s := p.Stats(); s.MaxTickDuration != 3*time.Millisecond || s.AvgTickDuration != 2*time.Millisecond {
		t.Errorf("stats = %+v, want only the last two ticks", s)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	s := NewPerfCollector(0).Stats()
	if s.AvgTickDuration != 0 || s.TicksPerSecond != 0 {
		t.Errorf("empty stats = %+v, want zero", s)
	}
	if s.PhasePct == nil {
		t.Error("PhasePct is nil")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		PhasePct:        map[string]float64{PhaseFlocking: 42},
	}
	row := s.ToCSV(77)
	if row.WindowEnd != 77 || row.AvgTickUS != 1500 || row.FlockingPct != 42 {
		t.Errorf("ToCSV = %+v", row)
	}
}
