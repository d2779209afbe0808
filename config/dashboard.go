package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kilianp07/chargeboard/core/chart"
	"github.com/kilianp07/chargeboard/core/model"
)

// DashboardConfig holds display settings and the what-if depot defaults.
type DashboardConfig struct {
	// HeatmapScale is the kW drawn at full intensity.
	HeatmapScale    float64 `json:"heatmap_scale"`
	SitePeakDepot   string  `json:"site_peak_depot"`
	BlackoutDepot   string  `json:"blackout_depot"`
	PreviewVehicles int     `json:"preview_vehicles"`
	PreviewHours    int     `json:"preview_hours"`
}

func (c *DashboardConfig) SetDefaults() {
	if c.HeatmapScale == 0 {
		c.HeatmapScale = chart.DefaultHeatmapScale
	}
	if c.SitePeakDepot == "" {
		c.SitePeakDepot = model.DefaultSitePeakDepot
	}
	if c.BlackoutDepot == "" {
		c.BlackoutDepot = model.DefaultBlackoutDepot
	}
	if c.PreviewVehicles == 0 {
		c.PreviewVehicles = 5
	}
	if c.PreviewHours == 0 {
		c.PreviewHours = 12
	}
}

func (c DashboardConfig) Validate() error {
	if c.HeatmapScale <= 0 {
		return fmt.Errorf("dashboard: heatmap_scale must be positive")
	}
	if c.PreviewVehicles < 0 || c.PreviewHours < 0 {
		return fmt.Errorf("dashboard: preview limits must not be negative")
	}
	return nil
}

// HTTPConfig configures the dashboard server.
type HTTPConfig struct {
	Address string `json:"address"`
	// AccessLog enables Apache combined access logs on stdout.
	AccessLog bool `json:"access_log"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.ShutdownTimeoutSeconds == 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

func (c HTTPConfig) Validate() error {
	if c.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("http: shutdown_timeout_seconds must not be negative")
	}
	return nil
}

// LoggingConfig sets the global log level.
type LoggingConfig struct {
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
