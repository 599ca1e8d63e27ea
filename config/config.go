// Package config loads and validates the MD fabric's configuration
// surface: the timestep/LJ/universe parameters an operator supplies, plus
// the derived fields (cutoff, box length, cell count) every other
// package needs but none of them should recompute independently.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/mdfabric/particle"
)

// InitVelocityMode selects the initial-velocity distribution the seed
// initializer draws from. Neither choice is canonical, so it is left
// configurable rather than hard-coded.
type InitVelocityMode string

const (
	// InitVelocityZero starts every particle at rest.
	InitVelocityZero InitVelocityMode = "zero"
	// InitVelocityUniform draws each axis independently and uniformly
	// from Epsilon*(rand-0.5), the distribution some source variants use.
	InitVelocityUniform InitVelocityMode = "uniform"
)

// Config is the full configuration surface: everything an operator can
// tune, plus the fields derived from it once (Cutoff, L, NCell) so every
// consumer shares one computation.
type Config struct {
	T     int     `yaml:"t"`
	DT    float64 `yaml:"dt"`
	Seed  int64   `yaml:"seed"`

	UniverseSize int `yaml:"universe_size"`
	NParticle    int `yaml:"n_particle"`

	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`

	ForcePipelineStages  int `yaml:"force_pipeline_stages"`
	FilterPipelineStages int `yaml:"filter_pipeline_stages"`

	NCPar int `yaml:"n_cpar"`
	NPPar int `yaml:"n_ppar"`

	BSize  int `yaml:"bsize"`
	DBSize int `yaml:"dbsize"`

	ErrTolerance float64 `yaml:"err_tolerance"`

	InitVelocity InitVelocityMode `yaml:"init_velocity"`

	// RecordsDir, when non-empty, is where records/t{t} files are
	// written; PerformanceCSV, when non-empty, is where a performance
	// trace row is appended. Both are left empty by default so tests and
	// the verifier can run the fabric without touching the filesystem.
	RecordsDir     string `yaml:"records_dir"`
	PerformanceCSV string `yaml:"performance_csv"`
}

// Default returns a Config with the model's standard parameters:
// DT=1e-7, EPSILON=40, SIGMA=1, FORCE_PIPELINE_STAGES=70,
// FILTER_PIPELINE_STAGES=13, BSIZE=512, DBSIZE=256, ERR_TOLERANCE=1e-2.
func Default() Config {
	return Config{
		T:                    2,
		DT:                   1e-7,
		Seed:                 0,
		UniverseSize:         3,
		NParticle:            300,
		Epsilon:              40,
		Sigma:                1,
		ForcePipelineStages:  70,
		FilterPipelineStages: 13,
		NCPar:                9,
		NPPar:                4,
		BSize:                512,
		DBSize:               256,
		ErrTolerance:         1e-2,
		InitVelocity:         InitVelocityZero,
	}
}

// Load reads and decodes a YAML config document at path over Default(),
// so a document only needs to name the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns an error describing the first invalid value it finds,
// whether structurally impossible or a typo'd YAML field, so Load fails
// cleanly. It does not panic.
func (c Config) Validate() error {
	if c.UniverseSize <= 0 {
		return fmt.Errorf("config: universe_size must be positive, got %d", c.UniverseSize)
	}
	if c.NParticle <= 0 {
		return fmt.Errorf("config: n_particle must be positive, got %d", c.NParticle)
	}
	if c.DBSize <= 0 || c.BSize != 2*c.DBSize {
		return fmt.Errorf("config: bsize (%d) must equal 2*dbsize (%d)", c.BSize, c.DBSize)
	}
	if c.NCPar <= 0 || c.NPPar <= 0 {
		return fmt.Errorf("config: n_cpar and n_ppar must be positive, got %d, %d", c.NCPar, c.NPPar)
	}
	nCell := c.UniverseSize * c.UniverseSize * c.UniverseSize
	if c.NParticle/nCell > c.DBSize {
		return fmt.Errorf("config: n_particle (%d) over %d cells risks exceeding dbsize (%d) per cell even at uniform density",
			c.NParticle, nCell, c.DBSize)
	}
	switch c.InitVelocity {
	case InitVelocityZero, InitVelocityUniform, "":
	default:
		return fmt.Errorf("config: unknown init_velocity mode %q", c.InitVelocity)
	}
	return nil
}

// Cutoff is the cell side length, 2.5*Sigma.
func (c Config) Cutoff() float64 { return 2.5 * c.Sigma }

// Geometry builds the particle.Geometry this configuration implies.
func (c Config) Geometry() particle.Geometry {
	return particle.Geometry{UniverseSize: c.UniverseSize, Cutoff: c.Cutoff(), BSize: c.BSize}
}

// L is the box side length, UniverseSize*Cutoff().
func (c Config) L() float64 { return c.Geometry().L() }

// NCell is the total cell count, UniverseSize^3.
func (c Config) NCell() int { return c.Geometry().NCell() }
