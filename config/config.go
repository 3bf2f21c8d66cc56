// Package config provides configuration loading and access for the
// particle field and resolution pipeline.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all runtime configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Forces     ForcesConfig     `yaml:"forces"`
	Emotions   EmotionsConfig   `yaml:"emotions"`
	Shapes     ShapesConfig     `yaml:"shapes"`
	Cache      CacheConfig      `yaml:"cache"`
	Generation GenerationConfig `yaml:"generation"`
	GPU        GPUConfig        `yaml:"gpu"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds particle state parameters.
type SimulationConfig struct {
	ParticleCount int     `yaml:"particle_count"` // fixed N, set at startup
	DeltaMax      float64 `yaml:"delta_max"`      // clamp for frame hitches (seconds)
	IdleRadius    float64 `yaml:"idle_radius"`    // radius of the idle ring targets
	WorldRadius   float64 `yaml:"world_radius"`   // soft bound used by the camera
}

// ForcesConfig holds the coefficients of the five force terms.
type ForcesConfig struct {
	SpringK         float64 `yaml:"spring_k"`          // base pull toward morph target
	SpringPitchGain float64 `yaml:"spring_pitch_gain"` // stiffness gain per normalized pitch
	PitchRef        float64 `yaml:"pitch_ref"`         // Hz mapped to pitch=1.0

	NoiseAmplitude   float64 `yaml:"noise_amplitude"`   // curl noise base amplitude
	NoiseFrequency   float64 `yaml:"noise_frequency"`   // spatial frequency of the potential
	NoiseTimeRate    float64 `yaml:"noise_time_rate"`   // temporal evolution rate
	NoiseUrgencyGain float64 `yaml:"noise_urgency_gain"` // amplitude gain per urgency
	Octave2Threshold float64 `yaml:"octave2_threshold"` // texture variance gating the second octave
	Octave2FreqMult  float64 `yaml:"octave2_freq_mult"` // frequency multiplier for octave 2
	Octave2Amp       float64 `yaml:"octave2_amp"`       // relative amplitude for octave 2

	DragCoefficient float64 `yaml:"drag_coefficient"` // viscous damping
	DragBreathiness float64 `yaml:"drag_breathiness"` // coefficient drop per breathiness

	RepulsionStrength float64 `yaml:"repulsion_strength"` // pointer push magnitude
	RepulsionRadius   float64 `yaml:"repulsion_radius"`   // zero force outside this radius

	BreathAmplitude   float64 `yaml:"breath_amplitude"`    // idle radial oscillation
	BreathFrequency   float64 `yaml:"breath_frequency"`    // rad/s
	BreathMorphFactor float64 `yaml:"breath_morph_factor"` // breathing scale while a morph target is active
}

// EmotionsConfig holds emotion profile parameters.
type EmotionsConfig struct {
	// Curve selects the interpolation between the neutral profile and the
	// dominant emotion profile: "smoothstep" (default) or "linear".
	Curve    string                   `yaml:"curve"`
	Profiles map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig holds the force-coefficient scalars for one emotion.
type ProfileConfig struct {
	SpringScale float64 `yaml:"spring_scale"`
	DragScale   float64 `yaml:"drag_scale"`
	NoiseScale  float64 `yaml:"noise_scale"`
}

// ShapesConfig holds local shape table parameters.
type ShapesConfig struct {
	ManifestPath        string  `yaml:"manifest_path"`        // extra authored shapes (empty = built-ins only)
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // cosine confidence for near-match
	PointCount          int     `yaml:"point_count"`          // canonical point-cloud size
}

// CacheConfig holds shape cache parameters.
type CacheConfig struct {
	MemoryCapacity int    `yaml:"memory_capacity"` // LRU entry cap
	DBPath         string `yaml:"db_path"`         // persistent tier (empty = memory only)
}

// GenerationConfig holds server generation pipeline parameters.
type GenerationConfig struct {
	ServerURL  string  `yaml:"server_url"`  // generation service base URL
	Model      string  `yaml:"model"`       // genai model for hints/labels
	EmbedModel string  `yaml:"embed_model"` // genai model for concept embeddings
	APIKeyEnv  string  `yaml:"api_key_env"` // env var holding the API key
	MinParts   int     `yaml:"min_parts"`   // validity gate for the primary path
	PointCount int     `yaml:"point_count"` // normalized output size
	TimeoutSec float64 `yaml:"timeout_sec"` // per-request timeout
	MaxHints   int     `yaml:"max_hints"`   // part-name hints passed to segmentation
}

// GPUConfig holds GPU backend parameters.
type GPUConfig struct {
	Enabled          bool `yaml:"enabled"`
	StateTextureSize int  `yaml:"state_texture_size"` // side of the RGBA32F state textures
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks averaged for perf stats
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DeltaMax32   float32 // Simulation.DeltaMax as float32
	IdleRadius32 float32
	ScreenW32    float32
	ScreenH32    float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
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
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
func (c *Config) validate() error {
	if c.Simulation.ParticleCount < 1 {
		return fmt.Errorf("simulation.particle_count must be >= 1, got %d", c.Simulation.ParticleCount)
	}
	if c.Simulation.DeltaMax <= 0 {
		return fmt.Errorf("simulation.delta_max must be > 0, got %v", c.Simulation.DeltaMax)
	}
	if c.GPU.Enabled && c.GPU.StateTextureSize > 0 {
		side := c.GPU.StateTextureSize
		if side*side < c.Simulation.ParticleCount {
			return fmt.Errorf("gpu.state_texture_size %d holds %d texels, need %d particles",
				side, side*side, c.Simulation.ParticleCount)
		}
	}
	switch c.Emotions.Curve {
	case "", "linear", "smoothstep":
	default:
		return fmt.Errorf("emotions.curve must be linear or smoothstep, got %q", c.Emotions.Curve)
	}
	if c.Generation.MinParts < 1 {
		return fmt.Errorf("generation.min_parts must be >= 1, got %d", c.Generation.MinParts)
	}
	if c.Shapes.SimilarityThreshold < 0 || c.Shapes.SimilarityThreshold > 1 {
		return fmt.Errorf("shapes.similarity_threshold must be in [0,1], got %v", c.Shapes.SimilarityThreshold)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DeltaMax32 = float32(c.Simulation.DeltaMax)
	c.Derived.IdleRadius32 = float32(c.Simulation.IdleRadius)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	if c.Emotions.Curve == "" {
		c.Emotions.Curve = "smoothstep"
	}

	// Round the state texture up to the next power of two that fits N,
	// so the GPU backend addresses a full grid with one tail row.
	if c.GPU.StateTextureSize == 0 {
		side := 1
		for side*side < c.Simulation.ParticleCount {
			side *= 2
		}
		c.GPU.StateTextureSize = side
	}
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
