// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Dashboard configures what the terminal dashboard shows on start.
type Dashboard struct {
	DefaultToken   string `yaml:"default_token"`
	Timeframe      string `yaml:"timeframe"`
	FeedIntervalMs int    `yaml:"feed_interval_ms"`
	ChartWidth     int    `yaml:"chart_width"`
}

// Risk encodes guard-rails for how much size the order panel accepts.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MinNotional         float64 `yaml:"min_notional"`
}

// DefaultLatencyMs is the simulated order delay used when latency_ms is unset.
const DefaultLatencyMs = 2000

// Execution tunes the mock order executor.
type Execution struct {
	LatencyMs int `yaml:"latency_ms"` // 0 means DefaultLatencyMs, negative means no delay
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Dashboard Dashboard `yaml:"dashboard"`
	Risk      Risk      `yaml:"risk"`
	Execution Execution `yaml:"execution"`
	Provider  Provider  `yaml:"provider"`
	Walletd   Walletd   `yaml:"walletd"`
}

// FeedInterval returns the mock feed cadence.
func (d Dashboard) FeedInterval() time.Duration {
	return time.Duration(d.FeedIntervalMs) * time.Millisecond
}

// Latency returns the simulated order delay.
func (e Execution) Latency() time.Duration {
	if e.LatencyMs < 0 {
		return 0
	}
	return time.Duration(e.LatencyMs) * time.Millisecond
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Dashboard.DefaultToken == "" {
		c.Dashboard.DefaultToken = "ETH"
	}
	if c.Dashboard.Timeframe == "" {
		c.Dashboard.Timeframe = "1D"
	}
	if c.Dashboard.FeedIntervalMs <= 0 {
		c.Dashboard.FeedIntervalMs = 1000
	}
	if c.Dashboard.ChartWidth <= 0 {
		c.Dashboard.ChartWidth = 48
	}
	if c.Execution.LatencyMs == 0 {
		c.Execution.LatencyMs = DefaultLatencyMs
	}
	if c.Provider.DialTimeoutMs <= 0 {
		c.Provider.DialTimeoutMs = 5000
	}
	if c.Walletd.Addr == "" {
		c.Walletd.Addr = "127.0.0.1:8546"
	}
	if c.Walletd.ChainID == 0 {
		c.Walletd.ChainID = 1
	}
}
