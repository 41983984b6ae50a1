// Package config loads the YAML-encoded scenario and solver configuration
// the command-line front end reads: which model to run, how the horizon
// grows, and the continuation/GMRES tunables. It follows the teacher
// repository's own config package: a plain struct with yaml tags, a
// DefaultConfig constructor, and Load/Save wrapping gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultZeta         = 1000.0
	DefaultEpsFB        = 1e-8
	DefaultFDEps        = 1e-8
	DefaultSamplingTime = 0.001
	DefaultKmax         = 5
	DefaultInitMaxIter  = 50
	DefaultInitTol      = 1e-6
)

// Config is the top-level scenario configuration: which model to run, its
// horizon policy, and the solver's continuation settings.
type Config struct {
	Model   string         `yaml:"model"`
	Horizon HorizonConfig  `yaml:"horizon"`
	Solver  SolverSettings `yaml:"solver"`
	InitUC  []float64      `yaml:"init_uc"`
	InitX   []float64      `yaml:"init_state"`
}

// HorizonConfig mirrors internal/horizon's growth law: Tf*(1-e^{-alpha*t}).
// Alpha=0 gives the constant-horizon case.
type HorizonConfig struct {
	Tf    float64 `yaml:"tf"`
	Alpha float64 `yaml:"alpha"`
	N     int     `yaml:"n"`
}

// SolverSettings mirrors solver.Settings, with YAML tags and a "dt" alias
// for SamplingTime: the original reference configs spell the control
// update period both ways, and accepting either avoids a silent
// misconfiguration when porting a scenario file.
type SolverSettings struct {
	SamplingTime float64 `yaml:"sampling_time"`
	Dt           float64 `yaml:"dt"`

	Zeta  float64 `yaml:"zeta"`
	EpsFB float64 `yaml:"eps_fb"`
	FDEps float64 `yaml:"fd_eps"`
	Kmax  int     `yaml:"kmax"`
	Tol   float64 `yaml:"tol"`

	WarnThreshold float64 `yaml:"warn_threshold"`

	InitMaxIter  int     `yaml:"init_max_iter"`
	InitTol      float64 `yaml:"init_tol"`
	InitDummyEps float64 `yaml:"init_dummy_eps"`

	// VerboseLevel controls how much of the Events() stream cmd/cgmres
	// logs: 0 silent, 1 a per-sample summary line at Info, 2 the same
	// per-sample line at Debug. The solver emits one Event per update, so
	// no level logs per-iteration (GMRES inner-loop) detail.
	// Mirrors the reference implementation's own settings.verbose_level.
	VerboseLevel int `yaml:"verbose_level"`
}

// Step returns the configured control update period, preferring
// SamplingTime when both SamplingTime and Dt were set (Validate accepts a
// file that sets both, without a warning).
func (s SolverSettings) Step() float64 {
	if s.SamplingTime > 0 {
		return s.SamplingTime
	}
	return s.Dt
}

func DefaultConfig() *Config {
	return &Config{
		Horizon: HorizonConfig{Tf: 1.0, Alpha: 0, N: 20},
		Solver: SolverSettings{
			SamplingTime: DefaultSamplingTime,
			Zeta:         DefaultZeta,
			EpsFB:        DefaultEpsFB,
			FDEps:        DefaultFDEps,
			Kmax:         DefaultKmax,
			InitMaxIter:  DefaultInitMaxIter,
			InitTol:      DefaultInitTol,
			VerboseLevel: 1,
		},
	}
}

// Load reads and parses a scenario config file, applying DefaultConfig's
// values as the base that the file's fields override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration is internally consistent. It returns
// an error for values the solver cannot run with at all (non-positive
// Tf/N/step), and never enforces the Zeta*step<2 stability heuristic — the
// solver facade only warns about that at update time, since some
// scenarios deliberately run near the edge of it.
func (c *Config) Validate() error {
	if c.Horizon.Tf <= 0 {
		return fmt.Errorf("config: horizon.tf must be positive, got %g", c.Horizon.Tf)
	}
	if c.Horizon.Alpha < 0 {
		return fmt.Errorf("config: horizon.alpha must be non-negative, got %g", c.Horizon.Alpha)
	}
	if c.Horizon.N <= 0 {
		return fmt.Errorf("config: horizon.n must be positive, got %d", c.Horizon.N)
	}
	step := c.Solver.Step()
	if step <= 0 {
		return fmt.Errorf("config: solver.sampling_time (or dt) must be positive, got %g", step)
	}
	if c.Solver.Zeta <= 0 {
		return fmt.Errorf("config: solver.zeta must be positive, got %g", c.Solver.Zeta)
	}
	if c.Solver.InitMaxIter <= 0 {
		return fmt.Errorf("config: solver.init_max_iter must be positive, got %d", c.Solver.InitMaxIter)
	}
	if c.Solver.InitTol <= 0 {
		return fmt.Errorf("config: solver.init_tol must be positive, got %g", c.Solver.InitTol)
	}
	return nil
}
