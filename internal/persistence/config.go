// Package persistence loads the optional per-project configuration file,
// .log2src.yaml, from the first source root. Absence is the common case;
// a missing file yields defaults, and only a malformed file is an error.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/ttiimm/log2src/internal/match"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = ".log2src.yaml"

// Config tunes indexing and matching for one project.
type Config struct {
	// Layout is a layout pattern applied when the CLI passes none.
	Layout string `yaml:"layout"`
	// Threshold overrides the match acceptance threshold.
	Threshold *float64 `yaml:"threshold"`
	// Ignore lists doublestar globs excluded from the source walk,
	// relative to each root.
	Ignore []string `yaml:"ignore"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{}
}

// Load reads .log2src.yaml under root. A missing file returns defaults;
// a malformed file is an error the CLI treats as fatal.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// MatchThreshold resolves the effective acceptance threshold.
func (c *Config) MatchThreshold() float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	return match.DefaultThreshold
}

func (c *Config) validate() error {
	if c.Threshold != nil && (*c.Threshold < 0 || *c.Threshold > 1) {
		return fmt.Errorf("threshold %v is outside [0, 1]", *c.Threshold)
	}
	return nil
}
