package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type NodeConfig struct {
	Name        string   `toml:"name"`
	AdminAddr   string   `toml:"admin_addr"`
	AdminToken  string   `toml:"admin_token"`
	CorsOrigins []string `toml:"cors_origins"`
	Banner      bool     `toml:"banner"`

	Transport TransportConfig `toml:"transport"`
	Accel     AccelConfig     `toml:"accel"`
	Framing   FramingConfig   `toml:"framing"`
}

type TransportConfig struct {
	Kind   string `toml:"kind"`
	Addr   string `toml:"addr"`
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

type AccelConfig struct {
	// Driver selects the register backend. "sim" is the software model;
	// hardware-attached backends register under their own names.
	Driver string `toml:"driver"`

	// Mode is the completion mode: "polled" or "notified".
	Mode string `toml:"mode"`

	// StallTimeoutMS bounds the completion wait. Zero keeps the
	// compatible wait-forever behavior.
	StallTimeoutMS int `toml:"stall_timeout_ms"`

	// SimLatencyCycles is the synthetic per-operation cycle cost of the
	// sim driver.
	SimLatencyCycles int `toml:"sim_latency_cycles"`
}

type FramingConfig struct {
	// Resync is the realignment strategy: "scan" (wire-compatible
	// marker scan) or "shift" (strict single-byte slide).
	Resync string `toml:"resync"`
}

func LoadNodeConfig(path string) (NodeConfig, error) {
	var cfg NodeConfig
	if err := loadToml(path, &cfg); err != nil {
		return NodeConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateNodeConfig(cfg); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// DefaultNodeConfig is the no-file configuration: TCP link, simulated
// accelerator, polled completion.
func DefaultNodeConfig() NodeConfig {
	var cfg NodeConfig
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *NodeConfig) {
	if cfg.Name == "" {
		cfg.Name = "aes-ctl"
	}
	if cfg.AdminAddr == "" {
		cfg.AdminAddr = ":9300"
	}
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = "tcp"
	}
	if cfg.Transport.Addr == "" {
		cfg.Transport.Addr = ":7700"
	}
	if cfg.Transport.Baud == 0 {
		cfg.Transport.Baud = 115200
	}
	if cfg.Accel.Driver == "" {
		cfg.Accel.Driver = "sim"
	}
	if cfg.Accel.Mode == "" {
		cfg.Accel.Mode = "polled"
	}
	if cfg.Accel.SimLatencyCycles == 0 {
		cfg.Accel.SimLatencyCycles = 1337
	}
	if cfg.Framing.Resync == "" {
		cfg.Framing.Resync = "scan"
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateNodeConfig(cfg NodeConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("node config missing name")
	}
	switch cfg.Transport.Kind {
	case "tcp":
		if strings.TrimSpace(cfg.Transport.Addr) == "" {
			return fmt.Errorf("transport addr required for tcp links")
		}
	case "serial":
		if strings.TrimSpace(cfg.Transport.Device) == "" {
			return fmt.Errorf("transport device required for serial links")
		}
		if cfg.Transport.Baud <= 0 {
			return fmt.Errorf("transport baud must be positive")
		}
	case "stdio":
	default:
		return fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
	switch cfg.Accel.Mode {
	case "polled", "notified":
	default:
		return fmt.Errorf("unknown accel mode %q", cfg.Accel.Mode)
	}
	switch cfg.Accel.Driver {
	case "sim":
	default:
		return fmt.Errorf("unknown accel driver %q", cfg.Accel.Driver)
	}
	if cfg.Accel.StallTimeoutMS < 0 {
		return fmt.Errorf("accel stall_timeout_ms must not be negative")
	}
	switch cfg.Framing.Resync {
	case "scan", "shift":
	default:
		return fmt.Errorf("unknown framing resync mode %q", cfg.Framing.Resync)
	}
	return nil
}
