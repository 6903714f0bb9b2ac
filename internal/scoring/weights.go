package scoring

import (
	_ "embed"
	"fmt"

	"go.yaml.in/yaml/v3"
)

//go:embed weights.yaml
var defaultWeights []byte

type CategoryWeights struct {
	ID     string         `yaml:"id"`
	Weight int            `yaml:"weight"`
	Checks map[string]int `yaml:"checks"`
}

// Config is the weight table scoring runs against. It is data, not code:
// the algorithm itself carries no weight constants.
type Config struct {
	Categories []CategoryWeights `yaml:"categories"`
}

// Load parses a weight table and validates the invariants Score relies on.
func Load(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse weights: %w", err)
	}

	if len(cfg.Categories) == 0 {
		return Config{}, fmt.Errorf("weights define no categories")
	}

	total := 0
	for _, c := range cfg.Categories {
		if c.ID == "" {
			return Config{}, fmt.Errorf("weights contain a category with an empty id")
		}
		if len(c.Checks) == 0 {
			return Config{}, fmt.Errorf("category %s has no checks", c.ID)
		}
		sum := 0
		for _, w := range c.Checks {
			if w < 0 {
				return Config{}, fmt.Errorf("category %s has a negative check weight", c.ID)
			}
			sum += w
		}
		if sum == 0 {
			return Config{}, fmt.Errorf("category %s has a zero check weight sum", c.ID)
		}
		total += c.Weight
	}
	if total != 100 {
		return Config{}, fmt.Errorf("category weights sum to %d, want 100", total)
	}

	return cfg, nil
}

// Default returns the embedded weight table.
func Default() Config {
	cfg, err := Load(defaultWeights)
	if err != nil {
		panic(err)
	}
	return cfg
}
