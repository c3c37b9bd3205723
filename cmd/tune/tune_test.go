package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/telemetry"
)

func init() {
	config.MustInit("")
}

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	defaults := pv.DefaultVector()
	if got := pv.ExtractFromConfig(cfg); len(got) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(got), pv.Dim())
	}
	for i, v := range pv.ExtractFromConfig(cfg) {
		if v != defaults[i] {
			t.Errorf("%s: config value %v, spec default %v", pv.Specs[i].Path, v, defaults[i])
		}
	}

	back := pv.Denormalize(pv.Normalize(defaults))
	for i := range defaults {
		if math.Abs(back[i]-defaults[i]) > 1e-9 {
			t.Errorf("%s: normalize round trip %v, want %v", pv.Specs[i].Name, back[i], defaults[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 1e6
	}
	pv.ApplyToConfig(cfg, values)

	for i, v := range pv.ExtractFromConfig(cfg) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s = %v, want clamped to %v", pv.Specs[i].Path, v, pv.Specs[i].Max)
		}
	}
	if cfg.Species.Fox.RunSpeed < cfg.Species.Fox.MoveSpeed {
		t.Errorf("fox run speed %v below move speed %v", cfg.Species.Fox.RunSpeed, cfg.Species.Fox.MoveSpeed)
	}
}

func TestComputeQuality(t *testing.T) {
	steady := telemetry.WindowStats{
		Rabbits: 40, Foxes: 4,
		RabbitHealthP50: 0.6, FoxHealthP50: 0.6,
		PredatorBites: 10, Kills: 3, KillRate: 0.3,
	}
	crashed := steady
	crashed.Foxes = 1

	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		wantMin float64
		wantMax float64
	}{
		{"too short", []telemetry.WindowStats{steady, steady}, 0, 0},
		{"ideal and flat", []telemetry.WindowStats{steady, steady, steady, steady, steady, steady}, 0.9, 1},
		{"predators gone", []telemetry.WindowStats{steady, steady, steady, crashed, crashed}, 0, 0},
	}
	for _, tt := range tests {
		got := computeQuality(tt.windows)
		if got < tt.wantMin || got > tt.wantMax {
			t.Errorf("%s: quality = %v, want in [%v, %v]", tt.name, got, tt.wantMin, tt.wantMax)
		}
	}
}

func TestComputeFitnessPrefersSurvival(t *testing.T) {
	if a, b := computeFitness(1000, 0), computeFitness(500, 1); a >= b {
		t.Errorf("fitness(1000 ticks) = %v, want below fitness(500 ticks, best quality) = %v", a, b)
	}
	if a, b := computeFitness(1000, 1), computeFitness(1000, 0); a >= b {
		t.Errorf("quality should lower fitness: %v vs %v", a, b)
	}
}

func TestEvaluateShortRun(t *testing.T) {
	if testing.Short() {
		t.Skip("runs full simulations")
	}
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 200, []int64{1, 2}, config.Cfg())

	fitness := fe.Evaluate(pv.DefaultVector())
	if fitness > 0 || fitness < computeFitness(200, 1) {
		t.Errorf("fitness = %v, want in [%v, 0]", fitness, computeFitness(200, 1))
	}
	if q := fe.LastQuality(); q < 0 || q > 1 {
		t.Errorf("quality = %v, want in [0, 1]", q)
	}
}
