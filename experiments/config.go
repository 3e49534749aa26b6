package experiments

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one experiment: how many episodes to play, on what
// kind of grid, and where the records go.
type Config struct {
	Name            string  `yaml:"name"`
	Episodes        int     `yaml:"episodes"`
	Truncation      int     `yaml:"truncation"`
	GridRows        int     `yaml:"grid_rows"`
	GridCols        int     `yaml:"grid_cols"`
	MountainDensity float64 `yaml:"mountain_density"`
	CityDensity     float64 `yaml:"city_density"`
	PadRows         int     `yaml:"pad_rows"`
	PadCols         int     `yaml:"pad_cols"`
	Seed            int64   `yaml:"seed"`
	OutDir          string  `yaml:"out_dir"`
}

func DefaultConfig() Config {
	return Config{
		Name:            "episodes",
		Episodes:        30,
		Truncation:      500,
		GridRows:        15,
		GridCols:        15,
		MountainDensity: 0.2,
		CityDensity:     0.05,
		Seed:            1,
		OutDir:          "experiments",
	}
}

// LoadConfig reads a YAML config. Fields absent from the file keep their
// defaults; fields present override them, including explicit zeros.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("config needs a name")
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("config needs a positive episode count, got %d", c.Episodes)
	}
	if c.GridRows <= 0 || c.GridCols <= 0 {
		return fmt.Errorf("config needs positive grid dimensions, got %dx%d", c.GridRows, c.GridCols)
	}
	return nil
}
