package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Quiz struct {
		MaxAttempts  int    `yaml:"max_attempts"`
		DedupeWindow string `yaml:"dedupe_window"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Auth struct {
		ProofSalt string `yaml:"proof_salt"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// MaxAttempts returns the configured attempt limit or the fallback when unset.
func (c Config) MaxAttempts(fallback int) int {
	if c.Quiz.MaxAttempts > 0 {
		return c.Quiz.MaxAttempts
	}
	return fallback
}
