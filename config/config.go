package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rehearsal/core/annealing"
	"github.com/kilianp07/rehearsal/core/metrics"
	"github.com/kilianp07/rehearsal/core/scoring"
	"github.com/kilianp07/rehearsal/infra/mqtt"
)

// EnvPrefix marks environment overrides. REHEARSAL_ANNEALING__STEP_MAX sets
// annealing.step_max.
const EnvPrefix = "REHEARSAL_"

type Config struct {
	Annealing annealing.Config      `json:"annealing"`
	Retry     annealing.RetryConfig `json:"retry"`
	Scoring   scoring.Config        `json:"scoring"`
	Store     StoreConfig           `json:"store"`
	Metrics   metrics.Config        `json:"metrics"`
	MQTT      mqtt.Config           `json:"mqtt"`
	Server    ServerConfig          `json:"server"`
	Logging   LoggingConfig         `json:"logging"`
	Sentry    SentryConfig          `json:"sentry"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	cfg := Config{
		Annealing: annealing.DefaultConfig(),
		Scoring:   scoring.DefaultConfig(),
	}
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills the zero fields of the sections where zero means unset.
// Annealing and scoring take explicit zeros (step_max: 0, weights.call: 0),
// so their defaults come from Default before decoding instead.
func (c *Config) SetDefaults() {
	c.Retry.SetDefaults()
	c.Store.SetDefaults()
	c.MQTT.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"annealing", c.Annealing.Validate},
		{"retry", c.Retry.Validate},
		{"scoring", c.Scoring.Validate},
		{"store", c.Store.Validate},
		{"mqtt", c.MQTT.Validate},
		{"server", c.Server.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"metrics", c.validateSinks},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

func (c *Config) validateSinks() error {
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d has no type", i)
		}
	}
	return nil
}

// Load reads the file at path, applies REHEARSAL_ environment overrides,
// then defaults and validates the result. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	// Keys absent from the file and environment keep their default.
	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
