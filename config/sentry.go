package config

import "fmt"

// DefaultSentryEnvironment tags events when no environment is configured.
const DefaultSentryEnvironment = "chargeboard"

// SentryConfig enables error reporting for failed agent calls and MQTT
// publishes. An empty DSN disables it.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults fills the environment tag when reporting is enabled.
func (c *SentryConfig) SetDefaults() {
	if c.DSN != "" && c.Environment == "" {
		c.Environment = DefaultSentryEnvironment
	}
}

func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate must be between 0 and 1")
	}
	return nil
}
