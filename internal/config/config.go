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
	Logger struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"`
	} `yaml:"logger"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Trivia struct {
		QuestionTTL     string `yaml:"question_ttl"`
		PostInterval    string `yaml:"post_interval"`
		GradeInterval   string `yaml:"grade_interval"`
		LeaderboardSize int    `yaml:"leaderboard_size"`
	} `yaml:"trivia"`
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

// Duration parses a duration string or returns the fallback if empty
// or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LeaderboardSize returns the configured scoreboard length, defaulting
// to 10.
func (c Config) LeaderboardSize() int {
	if c.Trivia.LeaderboardSize > 0 {
		return c.Trivia.LeaderboardSize
	}
	return 10
}
