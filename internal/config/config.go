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
	Logger  LoggerConfig `yaml:"logger"`
	Catalog struct {
		Path     string `yaml:"path"`
		Sheet    string `yaml:"sheet"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"catalog"`
	Accounts struct {
		// Backend is one of csv, redis, postgres, sqlite.
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		Key     string `yaml:"key"`
	} `yaml:"accounts"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Game GameConfig `yaml:"game"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// GameConfig holds the scoring and pacing rules. Zero values fall back to the defaults in app.DefaultRules.
type GameConfig struct {
	TimedSeconds      int    `yaml:"timed_seconds"`
	Lives             int    `yaml:"lives"`
	CorrectPoints     int    `yaml:"correct_points"`
	WrongPenalty      int    `yaml:"wrong_penalty"`
	RevealPenalty     int    `yaml:"reveal_penalty"`
	AdvanceDelay      string `yaml:"advance_delay"`
	ContinentalUnlock int    `yaml:"continental_unlock"`
	MicroNationUnlock int    `yaml:"micro_nation_unlock"`
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
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Catalog.Path == "" {
		c.Catalog.Path = "geocraftv2country.csv"
	}
	if c.Accounts.Backend == "" {
		c.Accounts.Backend = "csv"
	}
	if c.Accounts.Path == "" {
		c.Accounts.Path = "database.csv"
	}
	if c.Accounts.Key == "" {
		c.Accounts.Key = "geocraft:accounts"
	}
}

// Duration parses a duration string or returns the fallback if empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
