package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Rabbits int `csv:"rabbits"`
	Foxes   int `csv:"foxes"`
	Bushes  int `csv:"bushes"`
	Grass   int `csv:"grass"`

	// Events during window
	RabbitBirths int `csv:"rabbit_births"`
	FoxBirths    int `csv:"fox_births"`
	PlantBirths  int `csv:"plant_births"`
	RabbitDeaths int `csv:"rabbit_deaths"`
	FoxDeaths    int `csv:"fox_deaths"`
	PlantDeaths  int `csv:"plant_deaths"`

	// Death causes, all kinds
	Eaten   int `csv:"eaten"`
	Starved int `csv:"starved"`
	OldAge  int `csv:"old_age"`

	// Feeding and mating
	Bites    int     `csv:"bites"`
	Kills    int     `csv:"kills"`     // animals killed by predators
	Meals    int     `csv:"meals"`     // satiation reached
	Pairings int     `csv:"pairings"`  // mates claimed
	KillRate float64 `csv:"kill_rate"` // predator kills per predator bite

	// Bites landed by predators, for KillRate
	PredatorBites int `csv:"predator_bites"`

	// Health distribution (sampled at window end, as a fraction of initial)
	RabbitHealthMean float64 `csv:"rabbit_health_mean"`
	RabbitHealthP10  float64 `csv:"rabbit_health_p10"`
	RabbitHealthP50  float64 `csv:"rabbit_health_p50"`
	RabbitHealthP90  float64 `csv:"rabbit_health_p90"`

	FoxHealthMean float64 `csv:"fox_health_mean"`
	FoxHealthP10  float64 `csv:"fox_health_p10"`
	FoxHealthP50  float64 `csv:"fox_health_p50"`
	FoxHealthP90  float64 `csv:"fox_health_p90"`

	// Share of living animals using each strategy at window end
	ForageOpenShare  float64 `csv:"forage_open_share"`
	ForageCoverShare float64 `csv:"forage_cover_share"`
	ActiveHuntShare  float64 `csv:"active_hunt_share"`
	AmbushShare      float64 `csv:"ambush_share"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles of values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// CoefficientOfVariation returns the population standard deviation divided
// by the mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("rabbits", s.Rabbits),
		slog.Int("foxes", s.Foxes),
		slog.Int("bushes", s.Bushes),
		slog.Int("grass", s.Grass),
		slog.Int("rabbit_births", s.RabbitBirths),
		slog.Int("fox_births", s.FoxBirths),
		slog.Int("plant_births", s.PlantBirths),
		slog.Int("rabbit_deaths", s.RabbitDeaths),
		slog.Int("fox_deaths", s.FoxDeaths),
		slog.Int("plant_deaths", s.PlantDeaths),
		slog.Int("eaten", s.Eaten),
		slog.Int("starved", s.Starved),
		slog.Int("old_age", s.OldAge),
		slog.Int("bites", s.Bites),
		slog.Int("kills", s.Kills),
		slog.Int("meals", s.Meals),
		slog.Int("pairings", s.Pairings),
		slog.Float64("kill_rate", s.KillRate),
		slog.Float64("rabbit_health_mean", s.RabbitHealthMean),
		slog.Float64("fox_health_mean", s.FoxHealthMean),
		slog.Float64("forage_open_share", s.ForageOpenShare),
		slog.Float64("forage_cover_share", s.ForageCoverShare),
		slog.Float64("active_hunt_share", s.ActiveHuntShare),
		slog.Float64("ambush_share", s.AmbushShare),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"rabbits", s.Rabbits,
		"foxes", s.Foxes,
		"bushes", s.Bushes,
		"grass", s.Grass,
		"rabbit_births", s.RabbitBirths,
		"fox_births", s.FoxBirths,
		"rabbit_deaths", s.RabbitDeaths,
		"fox_deaths", s.FoxDeaths,
		"eaten", s.Eaten,
		"starved", s.Starved,
		"old_age", s.OldAge,
		"kills", s.Kills,
		"meals", s.Meals,
		"pairings", s.Pairings,
		"kill_rate", s.KillRate,
		"rabbit_health_p50", s.RabbitHealthP50,
		"fox_health_p50", s.FoxHealthP50,
		"forage_cover_share", s.ForageCoverShare,
		"ambush_share", s.AmbushShare,
	)
}
