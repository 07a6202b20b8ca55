// Package config loads and exposes the simulation's tunable configuration:
// fluid parameters, gravity/collision/external-force selection, worker
// count, and computation mode. Mutated by the UI collaborator, snapshotted
// by copy at the start of each simulation pass (field tearing on
// individual scalars is benign, per spec.md §5).
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// GravityMode selects the external gravity vector applied each step.
type GravityMode string

const (
	GravityOff      GravityMode = "off"
	GravityNormal   GravityMode = "normal"
	GravityRot90    GravityMode = "rot_90"
	GravityWave     GravityMode = "wave"
)

// CollisionMethod selects the boundary-response strategy.
type CollisionMethod string

const (
	CollisionReflexion CollisionMethod = "reflexion"
	CollisionForce     CollisionMethod = "force"
)

// ComputationMode selects the neighbor-search strategy.
type ComputationMode string

const (
	ComputationBrute ComputationMode = "brute"
	ComputationGrid  ComputationMode = "grid"
)

// ForceDirection selects whether the external cursor force pulls particles
// in or pushes them away.
type ForceDirection string

const (
	ForceAttractive ForceDirection = "attractive"
	ForceRepellent  ForceDirection = "repellent"
)

// Domain validity bounds named in spec.md §6.
const (
	MinInitialSpacing = 0.008
	MaxInitialSpacing = 0.256
	KernelRadiusRatio = 4.0 // h = KernelRadiusRatio * spacing

	MinParticleMass = 0.005
	MaxParticleMass = 0.1

	MinViscosity = 1e-5
	MaxViscosity = 10.0

	FixedDT = 0.05

	MinThreads = 1
	MaxThreads = 8

	SpacingChangeFactor = 1.41421356 // sqrt(2); increase/decrease divide/multiply by this
)

// PhysicsConfig holds the SPH fluid parameters.
type PhysicsConfig struct {
	ParticleMass       float32 `yaml:"particle_mass"`
	RestDensity        float32 `yaml:"rest_density"`
	GasConstant        float32 `yaml:"gas_constant"`
	Viscosity          float32 `yaml:"viscosity"`
	InitialSpacing     float32 `yaml:"initial_spacing"`
}

// GravityConfig holds gravity-mode parameters.
type GravityConfig struct {
	Mode         GravityMode `yaml:"mode"`
	Magnitude    float32     `yaml:"magnitude"`
	RotSwitchTicks int       `yaml:"rot_switch_ticks"`
}

// ReflexionConfig holds the position/velocity correction parameters used
// when CollisionMethod is "reflexion".
type ReflexionConfig struct {
	Damping float32 `yaml:"damping"` // d in [0,1]
}

// ForceBoundaryConfig holds the spring-damper parameters used when
// CollisionMethod is "force".
type ForceBoundaryConfig struct {
	SpringConstant float32 `yaml:"spring_constant"`
	DamperConstant float32 `yaml:"damper_constant"`
	ToleranceBand  float32 `yaml:"tolerance_band"`
}

// CollisionConfig selects and parameterizes the boundary resolver.
type CollisionConfig struct {
	Method    CollisionMethod     `yaml:"method"`
	Reflexion ReflexionConfig     `yaml:"reflexion"`
	Force     ForceBoundaryConfig `yaml:"force"`
}

// ExternalForceConfig holds the cursor-driven attract/repel force.
type ExternalForceConfig struct {
	Active    bool           `yaml:"active"`
	Direction ForceDirection `yaml:"direction"`
	Radius    float32        `yaml:"radius"`
	Strength  float32        `yaml:"strength"`
}

// MarchingCubesConfig holds the density-estimator/iso-surface parameters.
type MarchingCubesConfig struct {
	CubeEdgeLength float32 `yaml:"cube_edge_length"`
	Isovalue       float32 `yaml:"isovalue"`
}

// DiagnosticsConfig describes the optional per-pass CSV timing dump. It is
// loaded from and written back to YAML with the rest of the config, but no
// code in this module reads it: cmd/simulate takes its output directory
// from the -diagnostics-out flag instead.
type DiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	OutPath string `yaml:"out_path"`
}

// Config holds all simulation configuration, mutated by the UI collaborator
// and read by the core each step.
type Config struct {
	Physics         PhysicsConfig       `yaml:"physics"`
	Gravity         GravityConfig       `yaml:"gravity"`
	Collision       CollisionConfig     `yaml:"collision"`
	ExternalForce   ExternalForceConfig `yaml:"external_force"`
	MarchingCubes   MarchingCubesConfig `yaml:"marching_cubes"`
	Diagnostics     DiagnosticsConfig   `yaml:"diagnostics"`
	NumThreads      int                 `yaml:"num_threads"`
	ComputationMode ComputationMode     `yaml:"computation_mode"`

	// Derived holds values computed once after loading.
	Derived DerivedConfig `yaml:"-"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	KernelRadius float32 // Physics.InitialSpacing * KernelRadiusRatio
}

// global holds the process-wide configuration, set by Init.
var global *Config

// Init loads configuration from path (embedded defaults if path is empty)
// and installs it as the global config returned by Cfg.
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

// Load loads configuration from a YAML file, merging it over the embedded
// defaults. If path is empty, only the embedded defaults are used.
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
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// WriteYAML marshals the config (excluding derived fields) to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// computeDerived recalculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.KernelRadius = c.Physics.InitialSpacing * KernelRadiusRatio
}

// Snapshot returns a shallow copy of the config, safe to read for the
// duration of one simulation step even if the UI mutates the original
// concurrently between frames.
func (c *Config) Snapshot() Config {
	return *c
}

// ClampThreads clamps n into the valid worker-count range.
func ClampThreads(n int) int {
	if n < MinThreads {
		return MinThreads
	}
	if n > MaxThreads {
		return MaxThreads
	}
	return n
}
