package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Overrides lists the settings that may come from the environment or a .env file.
// Each variable is read as LSR_<NAME> first, then as the bare name.
type Overrides struct {
	APIKey     string `envconfig:"API_KEY"`
	APISecret  string `envconfig:"API_SECRET"`
	BaseURL    string `envconfig:"BASE_URL"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	ListenAddr string `envconfig:"LISTEN_ADDR"`
	ConfigPath string `envconfig:"CONFIG" default:"config.yaml"`
}

// LoadOverrides reads .env files (best-effort) and maps the environment onto Overrides.
func LoadOverrides(envFiles ...string) (*Overrides, error) {
	_ = godotenv.Load(envFiles...)

	var ov Overrides
	if err := envconfig.Process("lsr", &ov); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &ov, nil
}

// Apply copies every non-empty override onto the config.
func (o *Overrides) Apply(cfg *Config) {
	if o == nil || cfg == nil {
		return
	}
	if o.APIKey != "" {
		cfg.Exchange.APIKey = o.APIKey
	}
	if o.APISecret != "" {
		cfg.Exchange.APISecret = o.APISecret
	}
	if o.BaseURL != "" {
		cfg.Exchange.BaseURL = o.BaseURL
	}
	if o.LogLevel != "" {
		cfg.App.LogLevel = o.LogLevel
	}
	if o.ListenAddr != "" {
		cfg.App.ListenAddr = o.ListenAddr
	}
}
