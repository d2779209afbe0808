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

	"github.com/kilianp07/chargeboard/core/journal"
	"github.com/kilianp07/chargeboard/core/metrics"
	"github.com/kilianp07/chargeboard/infra/agent"
	"github.com/kilianp07/chargeboard/infra/mqtt"
)

// EnvPrefix marks environment overrides. A double underscore separates
// levels: CB_AGENT__BASE_URL sets agent.base_url.
const EnvPrefix = "CB_"

type Config struct {
	Agent     agent.Config    `json:"agent"`
	Dashboard DashboardConfig `json:"dashboard"`
	HTTP      HTTPConfig      `json:"http"`
	Metrics   metrics.Config  `json:"metrics"`
	Journal   journal.Config  `json:"journal"`
	Logging   LoggingConfig   `json:"logging"`
	Sentry    SentryConfig    `json:"sentry"`
	MQTT      mqtt.Config     `json:"mqtt"`
}

// Load reads path when it is not empty, applies environment overrides, then
// defaults, and validates the result.
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
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Agent.SetDefaults()
	c.Dashboard.SetDefaults()
	c.HTTP.SetDefaults()
	c.Journal.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	if err := c.Dashboard.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	return nil
}
