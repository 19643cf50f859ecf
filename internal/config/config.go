// Package config loads TOML configuration for the BLDS tools.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/baccuslab/bldsctl/internal/client"
	"github.com/baccuslab/bldsctl/internal/protocol/frame"
)

// BldsConfig identifies one BLDS endpoint.
type BldsConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	ConnectTimeoutMS int64  `toml:"connect_timeout_ms"`
	MaxFrameBytes    uint32 `toml:"max_frame_bytes"`
}

// MonitorConfig configures the bldsmon HTTP surface.
type MonitorConfig struct {
	Addr        string     `toml:"addr"`
	CorsOrigins []string   `toml:"cors_origins"`
	Blds        BldsConfig `toml:"blds"`
}

func LoadMonitorConfig(path string) (MonitorConfig, error) {
	var cfg MonitorConfig
	if err := loadToml(path, &cfg); err != nil {
		return MonitorConfig{}, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9280"
	}
	if len(cfg.CorsOrigins) == 0 {
		cfg.CorsOrigins = []string{"http://localhost:3000"}
	}
	cfg.Blds = cfg.Blds.withDefaults()
	if err := ValidateMonitorConfig(cfg); err != nil {
		return MonitorConfig{}, err
	}
	return cfg, nil
}

func ValidateMonitorConfig(cfg MonitorConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("monitor config missing addr")
	}
	return ValidateBldsConfig(cfg.Blds)
}

func ValidateBldsConfig(cfg BldsConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("blds config missing host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("blds config port out of range: %d", cfg.Port)
	}
	if cfg.ConnectTimeoutMS < 0 {
		return fmt.Errorf("blds config negative connect timeout")
	}
	return nil
}

func (c BldsConfig) withDefaults() BldsConfig {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = client.DefaultPort
	}
	if c.ConnectTimeoutMS == 0 {
		c.ConnectTimeoutMS = 5000
	}
	return c
}

// ClientConfig converts the file shape into a client.Config.
func (c BldsConfig) ClientConfig() client.Config {
	c = c.withDefaults()
	return client.Config{
		Host:           c.Host,
		Port:           c.Port,
		ConnectTimeout: time.Duration(c.ConnectTimeoutMS) * time.Millisecond,
		Limits:         frame.Limits{MaxFrameBytes: c.MaxFrameBytes},
	}
}

func loadToml(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
