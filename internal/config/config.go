package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Grouping GroupingConfig
	Web      WebConfig
	Defaults DefaultsConfig
}

type GroupingConfig struct {
	Strategy    string  // "greedy" or "average", defaults to greedy
	Threshold   float64 // 0 means: use the strategy default from defaults.yaml
	Concurrency int     // parallel fingerprint workers (default 5)
}

type WebConfig struct {
	Port int    // defaults to 8080
	Host string // defaults to 0.0.0.0
}

type DefaultsConfig struct {
	Strategies map[string]StrategyDefaults `yaml:"strategies"`
}

type StrategyDefaults struct {
	Threshold float64 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Grouping: GroupingConfig{
			Strategy:    os.Getenv("GROUPING_STRATEGY"),
			Threshold:   envFloat("GROUPING_THRESHOLD", 0),
			Concurrency: envInt("GROUPING_CONCURRENCY", 5),
		},
		Web: WebConfig{
			Port: envInt("WEB_PORT", 8080),
			Host: getenvDefault("WEB_HOST", "0.0.0.0"),
		},
		Defaults: defaults,
	}
}

// DefaultThreshold returns the configured default similarity threshold for a
// strategy, falling back to the greedy default for unknown names.
func (c *Config) DefaultThreshold(strategy string) float64 {
	if s, ok := c.Defaults.Strategies[strategy]; ok {
		return s.Threshold
	}
	if s, ok := c.Defaults.Strategies["greedy"]; ok {
		return s.Threshold
	}
	return 0.75
}

func getenvDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
