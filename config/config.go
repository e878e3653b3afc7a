package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Mode controls when outbound requests get the proxy-aware agent
// substituted in.
type Mode string

const (
	// ModeOff never substitutes.
	ModeOff Mode = "off"
	// ModeOn substitutes unless the caller already supplied an agent.
	ModeOn Mode = "on"
	// ModeOverride always substitutes, even over a caller-supplied agent,
	// except for unix-socket requests.
	ModeOverride Mode = "override"
	// ModeOnRequest substitutes only when the call itself asks for it.
	ModeOnRequest Mode = "on_request"
	// ModeDefault defers to the live configured mode, re-read per call.
	ModeDefault Mode = "default"
)

type Config struct {
	Proxy     ProxyCfg     `yaml:"proxy"`
	Cache     CacheCfg     `yaml:"cache"`
	Telemetry TelemetryCfg `yaml:"telemetry"`
}

type ProxyCfg struct {
	// URL is the settings-level proxy ("http://proxy:8080"). Malformed or
	// empty values mean "not configured", never an error.
	URL     string `yaml:"url"`
	Support Mode   `yaml:"support" validate:"omitempty,oneof=off on override on_request default"`
}

type CacheCfg struct {
	Capacity int `yaml:"capacity" validate:"omitempty,min=1"`
}

type TelemetryCfg struct {
	Enabled        bool          `yaml:"enabled"`
	FlushAfterIdle time.Duration `yaml:"flush_after_idle" validate:"omitempty,min=1s"`
}

func (cfg *Config) AdjustConfig() {
	if cfg.Proxy.Support == "" {
		cfg.Proxy.Support = ModeOn
	}
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = 5000
	}
	if cfg.Telemetry.FlushAfterIdle <= 0 {
		cfg.Telemetry.FlushAfterIdle = 10 * time.Minute
	}
}

func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if err = validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}
	cfg.AdjustConfig()

	return cfg, nil
}
