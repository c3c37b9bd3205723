package main

import (
	"github.com/pthm-cable/ecosim/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters: species
// intervals and the few speeds and damages that decide who catches whom.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Rabbit
			{Name: "rabbit_hunger", Path: "species.rabbit.hunger_interval", Min: 5, Max: 20, Default: 10},
			{Name: "rabbit_repro", Path: "species.rabbit.reproduction_interval", Min: 20, Max: 100, Default: 50},
			{Name: "rabbit_lifespan", Path: "species.rabbit.lifespan", Min: 60, Max: 200, Default: 100},
			{Name: "rabbit_run_speed", Path: "species.rabbit.run_speed", Min: 40, Max: 90, Default: 66},
			// Fox
			{Name: "fox_hunger", Path: "species.fox.hunger_interval", Min: 8, Max: 30, Default: 15},
			{Name: "fox_repro", Path: "species.fox.reproduction_interval", Min: 40, Max: 160, Default: 80},
			{Name: "fox_lifespan", Path: "species.fox.lifespan", Min: 90, Max: 300, Default: 180},
			{Name: "fox_run_speed", Path: "species.fox.run_speed", Min: 40, Max: 90, Default: 60},
			{Name: "fox_damage", Path: "species.fox.damage", Min: 0.5, Max: 3, Default: 1},
			// Plants
			{Name: "bush_repro", Path: "species.bush.reproduction_interval", Min: 10, Max: 60, Default: 30},
			{Name: "grass_repro", Path: "species.grass.reproduction_interval", Min: 8, Max: 40, Default: 20},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// fields returns pointers into cfg in Specs order.
func (pv *ParamVector) fields(cfg *config.Config) []*float64 {
	s := &cfg.Species
	return []*float64{
		&s.Rabbit.HungerInterval,
		&s.Rabbit.ReproductionInterval,
		&s.Rabbit.Lifespan,
		&s.Rabbit.RunSpeed,
		&s.Fox.HungerInterval,
		&s.Fox.ReproductionInterval,
		&s.Fox.Lifespan,
		&s.Fox.RunSpeed,
		&s.Fox.Damage,
		&s.Bush.ReproductionInterval,
		&s.Grass.ReproductionInterval,
	}
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, f := range pv.fields(cfg) {
		*f = clamped[i]
	}
	// Running must stay faster than walking
	if cfg.Species.Rabbit.RunSpeed < cfg.Species.Rabbit.MoveSpeed {
		cfg.Species.Rabbit.RunSpeed = cfg.Species.Rabbit.MoveSpeed
	}
	if cfg.Species.Fox.RunSpeed < cfg.Species.Fox.MoveSpeed {
		cfg.Species.Fox.RunSpeed = cfg.Species.Fox.MoveSpeed
	}
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	fields := pv.fields(cfg)
	v := make([]float64, len(fields))
	for i, f := range fields {
		v[i] = *f
	}
	return v
}
