// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Field     FieldConfig     `yaml:"field"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Bird      BirdConfig      `yaml:"bird"`
	Pipe      PipeConfig      `yaml:"pipe"`
	Ground    GroundConfig    `yaml:"ground"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Screen    ScreenConfig    `yaml:"screen"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SimConfig holds loop-level parameters.
type SimConfig struct {
	TickRate          int `yaml:"tick_rate"`          // Ticks per second (0 = unthrottled)
	ScoreCeiling      int `yaml:"score_ceiling"`      // Generation ends once score exceeds this
	Population        int `yaml:"population"`         // Birds per generation
	ParallelThreshold int `yaml:"parallel_threshold"` // Alive count at which per-bird work fans out (0 = never)
	Workers           int `yaml:"workers"`            // Worker goroutines (0 = GOMAXPROCS)
}

// FieldConfig holds the visible field dimensions in world units.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds bird kinematics.
type PhysicsConfig struct {
	Gravity          float64 `yaml:"gravity"`           // Coefficient of t² in the displacement
	MaxDisplacement  float64 `yaml:"max_displacement"`  // Largest downward move per tick
	AscendBias       float64 `yaml:"ascend_bias"`       // Extra lift applied while ascending
	JumpImpulse      float64 `yaml:"jump_impulse"`      // Velocity set by a jump (negative = up)
	MaxRotation      float64 `yaml:"max_rotation"`      // Nose-up tilt in degrees
	RotationVelocity float64 `yaml:"rotation_velocity"` // Tilt decay per tick in degrees
	MinTilt          float64 `yaml:"min_tilt"`          // Nose-down floor in degrees
	DiveHeadroom     float64 `yaml:"dive_headroom"`     // Keep nose up until this far below jump height
}

// BirdConfig holds agent placement and hit-region geometry.
type BirdConfig struct {
	StartX          float64 `yaml:"start_x"`
	StartY          float64 `yaml:"start_y"`
	RankSpacing     float64 `yaml:"rank_spacing"` // Horizontal offset per population rank; rank 0 leads steering
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	HitShape        string  `yaml:"hit_shape"` // "ellipse" or "rect"
	AnimationTime   int     `yaml:"animation_time"`
	AnimationFrames int     `yaml:"animation_frames"`
}

// PipeConfig holds obstacle geometry and motion.
type PipeConfig struct {
	Gap      float64 `yaml:"gap"`
	Velocity float64 `yaml:"velocity"`
	GapMin   int     `yaml:"gap_min"` // Inclusive lower bound of the gap-top offset
	GapMax   int     `yaml:"gap_max"` // Exclusive upper bound of the gap-top offset
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"` // Height of each pipe member
	InitialX float64 `yaml:"initial_x"`
	SpawnX   float64 `yaml:"spawn_x"`
}

// GroundConfig holds the scrolling ground plane.
type GroundConfig struct {
	Y        float64 `yaml:"y"`
	Velocity float64 `yaml:"velocity"`
	Width    float64 `yaml:"width"` // Width of one ground tile
}

// FitnessConfig holds reward shaping values.
type FitnessConfig struct {
	SurvivalReward   float64 `yaml:"survival_reward"`
	PassReward       float64 `yaml:"pass_reward"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	JumpThreshold    float64 `yaml:"jump_threshold"`
}

// EvolutionConfig holds parameters for the generation driver.
type EvolutionConfig struct {
	Generations      int     `yaml:"generations"`
	Strategy         string  `yaml:"strategy"` // "neat" or "ffnn"
	FitnessThreshold float64 `yaml:"fitness_threshold"`

	// FFNN strategy
	EliteFraction float64 `yaml:"elite_fraction"`
	MutationRate  float64 `yaml:"mutation_rate"`
	MutationSigma float64 `yaml:"mutation_sigma"`
	BigRate       float64 `yaml:"big_rate"`
	BigSigma      float64 `yaml:"big_sigma"`

	// NEAT strategy
	SurvivalThreshold float64 `yaml:"survival_threshold"`
	ConnectionProb    float64 `yaml:"connection_prob"`
	LinkWeightsProb   float64 `yaml:"link_weights_prob"`
	WeightMutPower    float64 `yaml:"weight_mut_power"`
	AddNodeProb       float64 `yaml:"add_node_prob"`
	AddLinkProb       float64 `yaml:"add_link_prob"`
	ToggleEnableProb  float64 `yaml:"toggle_enable_prob"`
	CompatThreshold   float64 `yaml:"compat_threshold"`
	DisjointCoeff     float64 `yaml:"disjoint_coeff"`
	ExcessCoeff       float64 `yaml:"excess_coeff"`
	MutdiffCoeff      float64 `yaml:"mutdiff_coeff"`
	MaxStagnation     int     `yaml:"max_stagnation"`  // Generations without improvement before a species is dropped
	SpeciesElitism    int     `yaml:"species_elitism"` // Species protected from stagnation removal
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// TickInterval returns the wall-clock time per tick, 0 when unthrottled.
func (s SimConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.TickRate)
}

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

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so the copy shares nothing with the original.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Validate checks that values fall in usable ranges.
func (c *Config) Validate() error {
	switch {
	case c.Sim.TickRate < 0:
		return fmt.Errorf("sim.tick_rate must be >= 0, got %d", c.Sim.TickRate)
	case c.Sim.ScoreCeiling < 0:
		return fmt.Errorf("sim.score_ceiling must be >= 0, got %d", c.Sim.ScoreCeiling)
	case c.Sim.Population < 1:
		return fmt.Errorf("sim.population must be >= 1, got %d", c.Sim.Population)
	case c.Sim.Workers < 0:
		return fmt.Errorf("sim.workers must be >= 0, got %d", c.Sim.Workers)
	case c.Field.Width <= 0 || c.Field.Height <= 0:
		return fmt.Errorf("field dimensions must be positive, got %vx%v", c.Field.Width, c.Field.Height)
	case c.Physics.MaxDisplacement <= 0:
		return fmt.Errorf("physics.max_displacement must be positive, got %v", c.Physics.MaxDisplacement)
	case c.Physics.MinTilt > c.Physics.MaxRotation:
		return fmt.Errorf("physics.min_tilt (%v) exceeds physics.max_rotation (%v)", c.Physics.MinTilt, c.Physics.MaxRotation)
	case c.Bird.Width < 1 || c.Bird.Height < 1:
		return fmt.Errorf("bird hit-region must be at least 1x1, got %dx%d", c.Bird.Width, c.Bird.Height)
	case c.Bird.HitShape != "ellipse" && c.Bird.HitShape != "rect":
		return fmt.Errorf("bird.hit_shape must be ellipse or rect, got %q", c.Bird.HitShape)
	case c.Pipe.GapMax <= c.Pipe.GapMin:
		return fmt.Errorf("pipe.gap_max (%d) must exceed pipe.gap_min (%d)", c.Pipe.GapMax, c.Pipe.GapMin)
	case c.Pipe.Width < 1 || c.Pipe.Height < 1:
		return fmt.Errorf("pipe members must be at least 1x1, got %dx%d", c.Pipe.Width, c.Pipe.Height)
	case c.Ground.Width <= 0:
		return fmt.Errorf("ground.width must be positive, got %v", c.Ground.Width)
	case c.Evolution.Generations < 0:
		return fmt.Errorf("evolution.generations must be >= 0, got %d", c.Evolution.Generations)
	case c.Evolution.Strategy != "neat" && c.Evolution.Strategy != "ffnn":
		return fmt.Errorf("evolution.strategy must be neat or ffnn, got %q", c.Evolution.Strategy)
	case c.Evolution.EliteFraction < 0 || c.Evolution.EliteFraction > 1:
		return fmt.Errorf("evolution.elite_fraction must be in [0, 1], got %v", c.Evolution.EliteFraction)
	case c.Evolution.SurvivalThreshold <= 0 || c.Evolution.SurvivalThreshold > 1:
		return fmt.Errorf("evolution.survival_threshold must be in (0, 1], got %v", c.Evolution.SurvivalThreshold)
	case c.Evolution.CompatThreshold <= 0:
		return fmt.Errorf("evolution.compat_threshold must be positive, got %v", c.Evolution.CompatThreshold)
	}
	return nil
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
