// Package config loads the server configuration from an optional yaml file
// with environment-variable overrides. The optimizer knobs live here so
// deployment defaults stay out of the planning core.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	Optimizer OptimizerConfig `yaml:"optimizer"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// OptimizerConfig holds the per-call defaults applied when a plan request
// leaves a budget unset.
type OptimizerConfig struct {
	TimeBudgetMs  int `yaml:"timeBudgetMs"`
	MaxIterations int `yaml:"maxIterations"`
	Workers       int `yaml:"workers"`
}

// RateLimitConfig bounds the plan endpoint; zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func defaults() Config {
	return Config{
		Addr: ":8080",
		Optimizer: OptimizerConfig{
			TimeBudgetMs: 30000, // matches the planner's historical 30s default
		},
		RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
	}
}

// Load reads the yaml file at path (optional; "" or a missing file means
// defaults), then applies environment overrides: PORT, DATABASE_URL,
// REDIS_URL.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	return cfg, nil
}
