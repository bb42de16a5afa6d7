// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, listen address, and logging levels.
type App struct {
	Name       string `yaml:"name"`
	Env        string `yaml:"env"`
	LogLevel   string `yaml:"log_level"`
	ListenAddr string `yaml:"listen_addr"`
	Console    bool   `yaml:"console"`
}

// Endpoint names one REST path that serves the long/short account ratio.
type Endpoint struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Exchange describes the futures market-data connectivity parameters.
type Exchange struct {
	BaseURL   string     `yaml:"base_url"`
	APIKey    string     `yaml:"api_key"`
	APISecret string     `yaml:"api_secret"`
	TimeoutMs int        `yaml:"timeout_ms"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Sentiment groups the knobs of the fetch → normalize → smooth → reduce pipeline.
type Sentiment struct {
	Symbols        []string `yaml:"symbols"`
	Period         string   `yaml:"period"`
	Limit          int      `yaml:"limit"`
	EMASpan        int      `yaml:"ema_span"`
	Fields         []string `yaml:"fields"`
	LongThreshold  float64  `yaml:"long_threshold"`
	ShortThreshold float64  `yaml:"short_threshold"`
}

// Monitor configures the refresh loop cadence.
type Monitor struct {
	RefreshIntervalMs int  `yaml:"refresh_interval_ms"`
	Parallel          bool `yaml:"parallel"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Exchange  Exchange  `yaml:"exchange"`
	Sentiment Sentiment `yaml:"sentiment"`
	Monitor   Monitor   `yaml:"monitor"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App: App{
			Name:       "lsratio",
			Env:        "dev",
			LogLevel:   "info",
			ListenAddr: ":8080",
		},
		Exchange: Exchange{
			BaseURL:   "https://fapi.binance.com",
			TimeoutMs: 8000,
			Endpoints: []Endpoint{
				{Name: "globalLongShortAccountRatio", Path: "/futures/data/globalLongShortAccountRatio"},
				{Name: "longShortAccountRatio", Path: "/futures/data/longShortAccountRatio"},
			},
		},
		Sentiment: Sentiment{
			Symbols:        []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT"},
			Period:         "4h",
			Limit:          100,
			EMASpan:        42,
			Fields:         []string{"longAccount", "longAccountRatio"},
			LongThreshold:  65,
			ShortThreshold: 35,
		},
		Monitor: Monitor{
			RefreshIntervalMs: 10000,
		},
	}
}

// Load reads a YAML file from disk on top of the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
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

// RefreshInterval is the minimum spacing between two ticks.
func (m Monitor) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshIntervalMs) * time.Millisecond
}

// Timeout bounds a single upstream request.
func (e Exchange) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}
