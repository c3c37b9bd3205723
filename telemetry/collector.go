package telemetry

import "github.com/pthm-cable/ecosim/components"

// Sample is the population state measured at the end of a window.
type Sample struct {
	Population   [components.KindCount]int
	RabbitHealth []float64 // health fractions of living rabbits
	FoxHealth    []float64
	Strategies   [components.StrategyCount]int // living animals per strategy
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartTick int32
	windowStartSec  float64

	// Event counters for current window
	births        [components.KindCount]int
	deaths        [components.KindCount]int
	causes        [CauseRemoved + 1]int
	bites         int
	predatorBites int
	kills         int
	meals         int
	pairings      int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 1
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// Record counts one event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventBite:
		c.bites++
		if ev.Kind == components.KindFox {
			c.predatorBites++
		}
	case EventKill:
		c.kills++
	case EventMeal:
		c.meals++
	case EventPairing:
		c.pairings++
	case EventBirth:
		c.births[ev.Kind]++
	case EventDeath:
		c.deaths[ev.Kind]++
		c.causes[ev.Cause]++
	}
}

// ShouldFlush returns true once the window has lasted its full duration.
func (c *Collector) ShouldFlush(simTimeSec float64) bool {
	return simTimeSec-c.windowStartSec >= c.windowDurationSec
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, simTimeSec float64, sample Sample) WindowStats {
	var killRate float64
	if c.predatorBites > 0 {
		killRate = float64(c.kills) / float64(c.predatorBites)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTimeSec,

		Rabbits: sample.Population[components.KindRabbit],
		Foxes:   sample.Population[components.KindFox],
		Bushes:  sample.Population[components.KindBush],
		Grass:   sample.Population[components.KindGrass],

		RabbitBirths: c.births[components.KindRabbit],
		FoxBirths:    c.births[components.KindFox],
		PlantBirths:  c.births[components.KindBush] + c.births[components.KindGrass],
		RabbitDeaths: c.deaths[components.KindRabbit],
		FoxDeaths:    c.deaths[components.KindFox],
		PlantDeaths:  c.deaths[components.KindBush] + c.deaths[components.KindGrass],

		Eaten:   c.causes[CauseEaten],
		Starved: c.causes[CauseStarved],
		OldAge:  c.causes[CauseOldAge],

		Bites:         c.bites,
		PredatorBites: c.predatorBites,
		Kills:         c.kills,
		Meals:         c.meals,
		Pairings:      c.pairings,
		KillRate:      killRate,
	}

	stats.RabbitHealthMean, stats.RabbitHealthP10, stats.RabbitHealthP50, stats.RabbitHealthP90 = ComputeDistribution(sample.RabbitHealth)
	stats.FoxHealthMean, stats.FoxHealthP10, stats.FoxHealthP50, stats.FoxHealthP90 = ComputeDistribution(sample.FoxHealth)

	var animals int
	for _, n := range sample.Strategies {
		animals += n
	}
	if animals > 0 {
		share := func(s components.Strategy) float64 {
			return float64(sample.Strategies[s]) / float64(animals)
		}
		stats.ForageOpenShare = share(components.ForageOpen)
		stats.ForageCoverShare = share(components.ForageCover)
		stats.ActiveHuntShare = share(components.ActiveHunt)
		stats.AmbushShare = share(components.Ambush)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.windowStartSec = simTimeSec
	c.births = [components.KindCount]int{}
	c.deaths = [components.KindCount]int{}
	c.causes = [CauseRemoved + 1]int{}
	c.bites = 0
	c.predatorBites = 0
	c.kills = 0
	c.meals = 0
	c.pairings = 0

	return stats
}

// WindowDurationSec returns the simulated length of a window.
func (c *Collector) WindowDurationSec() float64 {
	return c.windowDurationSec
}
