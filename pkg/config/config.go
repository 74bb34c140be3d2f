// Package config holds the YAML-backed hyperparameter configuration for
// every optimizer and the engine, grounded on the teacher ecosystem's
// config.Config/DefaultConfig/Load pattern (jhkimqd-chaos-utils
// pkg/config/config.go): defaults, then an optional YAML file, then CLI
// flag overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netstrata/qosrouter/pkg/optimize"
)

// Config bundles every tunable named in spec §4.3-§4.8 plus the
// engine-level settings (cache size, RNG master seed).
type Config struct {
	Engine EngineConfig    `yaml:"engine"`
	GA     optimize.GAConfig    `yaml:"ga"`
	ACO    optimize.ACOConfig   `yaml:"aco"`
	PSO    optimize.PSOConfig   `yaml:"pso"`
	SA     optimize.SAConfig    `yaml:"sa"`
	QL     optimize.RLConfig    `yaml:"ql"`
	SARSA  optimize.RLConfig    `yaml:"sarsa"`
}

// EngineConfig configures the orchestration layer in internal/engine.
type EngineConfig struct {
	MasterSeed    int64 `yaml:"master_seed"`
	CacheSize     int   `yaml:"cache_size"`
	NRepeats      int   `yaml:"n_repeats"`
	KPathsMax     int   `yaml:"k_paths_max"`
}

// DefaultConfig returns the spec-default configuration for every
// component.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MasterSeed: 42,
			CacheSize:  5000,
			NRepeats:   5,
			KPathsMax:  500,
		},
		GA:    optimize.DefaultGAConfig(),
		ACO:   optimize.DefaultACOConfig(),
		PSO:   optimize.DefaultPSOConfig(),
		SA:    optimize.DefaultSAConfig(),
		QL:    optimize.DefaultRLConfig(),
		SARSA: optimize.DefaultRLConfig(),
	}
}

// Load reads configuration from a YAML file, falling back to
// DefaultConfig() unchanged if path does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// Validate checks the engine-level settings for internal consistency.
func (c *Config) Validate() error {
	if c.Engine.CacheSize < 0 {
		return fmt.Errorf("config: engine.cache_size must be non-negative")
	}
	if c.Engine.NRepeats < 1 {
		return fmt.Errorf("config: engine.n_repeats must be at least 1")
	}
	if c.Engine.KPathsMax < 1 {
		return fmt.Errorf("config: engine.k_paths_max must be at least 1")
	}
	return nil
}
