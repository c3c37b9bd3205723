package main

import (
	"math"
	"slices"
	"sync"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: baseCfg.Telemetry.StatsWindow,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Minimum viable population: if either animal stays below this for
// extinctionGraceSec, it counts as functionally extinct.
const (
	minViablePop       = 2
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32                   // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
}

type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel; each owns its simulation.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(x, s)
			if err != nil {
				// Unusable parameters score as immediate extinction
				results[idx] = seedResult{}
				return
			}
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(result.survivalTicks, quality),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	sim, err := game.NewSimulation(game.Options{
		Seed:           seed,
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	dt := cfg.Physics.DT
	graceTicks := int32(extinctionGraceSec / dt)
	warmupTicks := int32(warmupSec / dt)
	var rabbitsBelow, foxesBelow int32

	for sim.Tick() < fe.maxTicks {
		report := sim.Advance(dt)
		if report.Tick < warmupTicks {
			continue
		}

		rabbits := report.Population[components.KindRabbit]
		foxes := report.Population[components.KindFox]

		// Hard extinction: either animal completely gone
		if rabbits == 0 || foxes == 0 {
			result.survivalTicks = report.Tick
			return result, nil
		}

		rabbitsBelow = belowFor(rabbitsBelow, rabbits)
		foxesBelow = belowFor(foxesBelow, foxes)
		if rabbitsBelow >= graceTicks || foxesBelow >= graceTicks {
			result.survivalTicks = report.Tick
			return result, nil
		}
	}

	result.survivalTicks = fe.maxTicks
	return result, nil
}

// belowFor advances a count of consecutive ticks under minViablePop.
func belowFor(ticks int32, pop int) int32 {
	if pop < minViablePop {
		return ticks + 1
	}
	return 0
}

// copyConfig returns a copy of the base config that evaluations may mutate.
// Slices are cloned so concurrent runs never share backing arrays.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	for _, sp := range []*config.SpeciesConfig{&cfg.Species.Rabbit, &cfg.Species.Fox, &cfg.Species.Bush, &cfg.Species.Grass} {
		sp.Eats = slices.Clone(sp.Eats)
	}
	cfg.Server.AllowedOrigins = slices.Clone(cfg.Server.AllowedOrigins)
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality separates configs with similar survival.
func computeFitness(survivalTicks int32, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.30
	qualityWeightStability = 0.25
	qualityWeightHealth    = 0.25
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 3 // skip first N windows
	qualityMinPop        = 2 // exclude windows where either animal < this
	targetRatio          = 10.0
	targetHealth         = 0.6
	targetKillRate       = 0.3
)

// computeQuality computes ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var ratioSum, healthSum, huntSum float64
	var ratioCount, huntCount int
	rabbits := make([]float64, 0, len(valid))
	foxes := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Rabbits < qualityMinPop || w.Foxes < qualityMinPop {
			continue
		}
		rabbits = append(rabbits, float64(w.Rabbits))
		foxes = append(foxes, float64(w.Foxes))

		// Prey to predator ratio near the target, on a log scale
		logErr := math.Log(float64(w.Rabbits) / float64(w.Foxes) / targetRatio)
		ratioSum += math.Exp(-logErr * logErr)
		ratioCount++

		rabbitH := math.Exp(-math.Pow((w.RabbitHealthP50-targetHealth)/0.25, 2))
		foxH := math.Exp(-math.Pow((w.FoxHealthP50-targetHealth)/0.25, 2))
		healthSum += (rabbitH + foxH) / 2.0

		if w.PredatorBites > 0 {
			rateScore := math.Exp(-math.Pow((w.KillRate-targetKillRate)/0.2, 2))
			killsPerFox := float64(w.Kills) / float64(w.Foxes)
			activityScore := 1.0 - math.Exp(-killsPerFox)
			huntSum += 0.6*rateScore + 0.4*activityScore
			huntCount++
		}
	}

	if ratioCount == 0 {
		return 0
	}

	stabilityScore := 0.0
	if len(rabbits) >= 2 {
		cvRabbits := telemetry.CoefficientOfVariation(rabbits)
		cvFoxes := telemetry.CoefficientOfVariation(foxes)
		stabilityScore = math.Exp(-(cvRabbits*cvRabbits + cvFoxes*cvFoxes))
	}

	huntScore := 0.0
	if huntCount > 0 {
		huntScore = huntSum / float64(huntCount)
	}

	quality := qualityWeightRatio*ratioSum/float64(ratioCount) +
		qualityWeightStability*stabilityScore +
		qualityWeightHealth*healthSum/float64(ratioCount) +
		qualityWeightHunting*huntScore

	return min(max(quality, 0), 1)
}
