package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Salon struct {
		Timezone               string `yaml:"timezone"`
		StepMinutes            int    `yaml:"step_minutes"`
		ScheduleCacheTTLSecond int    `yaml:"schedule_cache_ttl_seconds"`
	} `yaml:"salon"`

	Waitlist struct {
		ReleasePolicy   string `yaml:"release_policy"` // "waiting" or "expired"
		ClaimTTLSeconds int    `yaml:"claim_ttl_seconds"`
	} `yaml:"waitlist"`

	Notifications struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"notifications"`

	Reports struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`

		DefaultService struct {
			DurationMinutes     int `yaml:"duration_minutes"`
			BufferBeforeMinutes int `yaml:"buffer_before_minutes"`
			BufferAfterMinutes  int `yaml:"buffer_after_minutes"`
		} `yaml:"default_service"`
	} `yaml:"reports"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/velora.db"
	}
	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the salon timezone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Salon.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Salon.Timezone)
	if err != nil {
		return nil, fmt.Errorf("salon timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) StepMinutes() int {
	if c.Salon.StepMinutes <= 0 {
		return 15
	}
	return c.Salon.StepMinutes
}

func (c *Config) ScheduleCacheTTL() time.Duration {
	if c.Salon.ScheduleCacheTTLSecond <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Salon.ScheduleCacheTTLSecond) * time.Second
}

func (c *Config) ReleasePolicy() string {
	if c.Waitlist.ReleasePolicy == "" {
		return "waiting"
	}
	return c.Waitlist.ReleasePolicy
}

func (c *Config) NotificationRate() (float64, int) {
	rate := c.Notifications.RatePerSecond
	if rate <= 0 {
		rate = 10
	}
	burst := c.Notifications.Burst
	if burst <= 0 {
		burst = 20
	}
	return rate, burst
}
