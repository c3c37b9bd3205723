// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena       ArenaConfig       `yaml:"arena"`
	World       WorldConfig       `yaml:"world"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Population  PopulationConfig  `yaml:"population"`
	Species     SpeciesTable      `yaml:"species"`
	Interaction InteractionConfig `yaml:"interaction"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Flocking    FlockingConfig    `yaml:"flocking"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bookmarks   BookmarksConfig   `yaml:"bookmarks"`
	Server      ServerConfig      `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig holds the arena bounds and spatial index resolution.
type ArenaConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	CellSize float64 `yaml:"cell_size"` // Spatial index bucket edge length
}

// WorldConfig controls Area generation.
type WorldConfig struct {
	Areas          int     `yaml:"areas"`           // Number of areas to place
	MinAreaSize    float64 `yaml:"min_area_size"`   // Smallest area edge
	MaxAreaSize    float64 `yaml:"max_area_size"`   // Largest area edge
	NoiseScale     float64 `yaml:"noise_scale"`     // Simplex frequency used to tag areas
	CoverThreshold float64 `yaml:"cover_threshold"` // Normalized noise above this marks an area Covered
}

// PhysicsConfig holds the time step used by headless runners.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// KindCounts holds one integer per entity kind.
type KindCounts struct {
	Rabbit int `yaml:"rabbit"`
	Fox    int `yaml:"fox"`
	Bush   int `yaml:"bush"`
	Grass  int `yaml:"grass"`
}

// PopulationConfig holds initial population sizes and hard caps.
type PopulationConfig struct {
	Initial KindCounts `yaml:"initial"`
	Max     KindCounts `yaml:"max"` // Spawns beyond the cap are dropped
}

// SpeciesConfig holds the per-species base parameters. Intervals are in seconds.
type SpeciesConfig struct {
	Health               float64  `yaml:"health"`
	MoveSpeed            float64  `yaml:"move_speed"`
	RunSpeed             float64  `yaml:"run_speed"`
	Damage               float64  `yaml:"damage"`
	HungerInterval       float64  `yaml:"hunger_interval"`
	IdleInterval         float64  `yaml:"idle_interval"`
	ReproductionInterval float64  `yaml:"reproduction_interval"`
	Lifespan             float64  `yaml:"lifespan"`
	Jitter               float64  `yaml:"jitter"`          // Timers get a uniform [0, jitter) offset
	SatiationTime        float64  `yaml:"satiation_time"`  // Seconds of feeding before hunger resets
	StarvationRate       float64  `yaml:"starvation_rate"` // Health lost per second while starving
	Immobilize           bool     `yaml:"immobilize"`      // Hits freeze the target
	NeedsPartner         bool     `yaml:"needs_partner"`
	Eats                 []string `yaml:"eats"`
}

// SpeciesTable holds parameters for every kind.
type SpeciesTable struct {
	Rabbit SpeciesConfig `yaml:"rabbit"`
	Fox    SpeciesConfig `yaml:"fox"`
	Bush   SpeciesConfig `yaml:"bush"`
	Grass  SpeciesConfig `yaml:"grass"`
}

// InteractionConfig holds proximity and lifecycle constants shared by all species.
type InteractionConfig struct {
	Range              float64 `yaml:"range"`               // Eat/mate distance
	MinMoveDistance    float64 `yaml:"min_move_distance"`   // No movement closer than this to a destination
	SpawnOffsetX       float64 `yaml:"spawn_offset_x"`      // Offspring offset from the initiating parent
	SpawnOffsetY       float64 `yaml:"spawn_offset_y"`
	PlantDispersal     float64 `yaml:"plant_dispersal"`     // Max seed distance from parent plant
	DeathEpsilon       float64 `yaml:"death_epsilon"`       // Health at or below this is death
	ImmobilizeDuration float64 `yaml:"immobilize_duration"` // Seconds an immobilized animal stays frozen
	AreaBias           float64 `yaml:"area_bias"`           // Chance to pick an area matching the strategy tag
	WanderWindow       float64 `yaml:"wander_window"`       // Fraction of arena used for local wandering without areas
}

// PayoffConfig describes the reward model of one strategy.
type PayoffConfig struct {
	Benefit    float64 `yaml:"benefit"`     // Earned per second while feeding
	Cost       float64 `yaml:"cost"`        // Paid per second while the strategy is active
	ThreatCost float64 `yaml:"threat_cost"` // Paid per second per detected threat
}

// PayoffTable holds payoffs for every strategy.
type PayoffTable struct {
	ForageOpen  PayoffConfig `yaml:"forage_open"`
	ForageCover PayoffConfig `yaml:"forage_cover"`
	ActiveHunt  PayoffConfig `yaml:"active_hunt"`
	Ambush      PayoffConfig `yaml:"ambush"`
}

// StrategyConfig holds strategy selection parameters.
type StrategyConfig struct {
	PreyDetectionRadius     float64     `yaml:"prey_detection_radius"`     // Prey notice predators within this
	PredatorDetectionRadius float64     `yaml:"predator_detection_radius"` // Predators notice prey within this
	ExperienceDecay         float64     `yaml:"experience_decay"`          // Fraction of score lost per second (0 = never)
	Payoffs                 PayoffTable `yaml:"payoffs"`
}

// FlockingConfig holds boid parameters for prey.
type FlockingConfig struct {
	PerceptionRadius float64 `yaml:"perception_radius"`
	SeparationRadius float64 `yaml:"separation_radius"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	MaxForce         float64 `yaml:"max_force"`
	MaxSpeed         float64 `yaml:"max_speed"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	HuntBreakthrough HuntBreakthroughConfig `yaml:"hunt_breakthrough"`
	PredatorRecovery PredatorRecoveryConfig `yaml:"predator_recovery"`
	PreyCrash        PreyCrashConfig        `yaml:"prey_crash"`
	StableEcosystem  StableEcosystemConfig  `yaml:"stable_ecosystem"`
}

// HuntBreakthroughConfig holds hunt breakthrough detection parameters.
type HuntBreakthroughConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinKills   int     `yaml:"min_kills"`
}

// PredatorRecoveryConfig holds predator recovery detection parameters.
type PredatorRecoveryConfig struct {
	MinPopulation      int `yaml:"min_population"`
	RecoveryMultiplier int `yaml:"recovery_multiplier"`
	MinFinal           int `yaml:"min_final"`
}

// PreyCrashConfig holds prey crash detection parameters.
type PreyCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableEcosystemConfig holds stable ecosystem detection parameters.
type StableEcosystemConfig struct {
	MinPrey       int     `yaml:"min_prey"`
	MinPred       int     `yaml:"min_pred"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// ServerConfig holds the observation server settings.
type ServerConfig struct {
	Listen         string   `yaml:"listen"`          // Empty disables the server
	StreamHz       float64  `yaml:"stream_hz"`       // Snapshot frames per second on /ws
	RateLimit      float64  `yaml:"rate_limit"`      // Requests per second per client
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridCols           int     // Arena width in spatial cells
	GridRows           int     // Arena height in spatial cells
	InteractionRangeSq float64 // Interaction.Range squared
}

// ErrInvalid is returned by Validate for unusable configurations.
var ErrInvalid = errors.New("config: invalid")

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Arena.Width <= 0 || c.Arena.Height <= 0:
		return fmt.Errorf("%w: arena must have positive size", ErrInvalid)
	case c.Arena.CellSize <= 0:
		return fmt.Errorf("%w: arena.cell_size must be positive", ErrInvalid)
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics.dt must be positive", ErrInvalid)
	case c.Interaction.Range <= 0:
		return fmt.Errorf("%w: interaction.range must be positive", ErrInvalid)
	case c.Flocking.SeparationRadius > c.Flocking.PerceptionRadius:
		return fmt.Errorf("%w: flocking.separation_radius exceeds perception_radius", ErrInvalid)
	case c.Strategy.ExperienceDecay < 0:
		return fmt.Errorf("%w: strategy.experience_decay must not be negative", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.GridCols = int(math.Ceil(c.Arena.Width / c.Arena.CellSize))
	c.Derived.GridRows = int(math.Ceil(c.Arena.Height / c.Arena.CellSize))
	c.Derived.InteractionRangeSq = c.Interaction.Range * c.Interaction.Range
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
