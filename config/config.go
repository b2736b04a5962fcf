package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Quota   QuotaConfig   `yaml:"quota"`
	Retry   RetryConfig   `yaml:"retry"`
	Voice   VoiceConfig   `yaml:"voice"`
	Collage CollageConfig `yaml:"collage"`
	Render  RenderConfig  `yaml:"render"`
}

type PathsConfig struct {
	Catalog  string `yaml:"catalog"`
	State    string `yaml:"state"`
	UsageLog string `yaml:"usage_log"`
	Ledger   string `yaml:"ledger"`
	Output   string `yaml:"output"`
	Cache    string `yaml:"cache"`
	Lock     string `yaml:"lock"`
}

type FetchConfig struct {
	Service      string `yaml:"service"`       // quota bucket name, e.g. "unsplash"
	Endpoint     string `yaml:"endpoint"`      // search API base URL
	RequestCount int    `yaml:"request_count"` // images requested per search
	MinCount     int    `yaml:"min_count"`     // minimum usable images per run
	TimeoutSec   int    `yaml:"timeout_sec"`
}

type QuotaConfig struct {
	DailyLimit    int `yaml:"daily_limit"`
	WarnThreshold int `yaml:"warn_threshold"`
}

type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	BaseDelaySec float64 `yaml:"base_delay_sec"`
}

type VoiceConfig struct {
	MinDurationSec float64 `yaml:"min_duration_sec"`
	MaxDurationSec float64 `yaml:"max_duration_sec"`
}

type CollageConfig struct {
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	MinImages int      `yaml:"min_images"`
	Layouts   []string `yaml:"layouts"`
}

type RenderConfig struct {
	FPS          int     `yaml:"fps"`
	ToleranceSec float64 `yaml:"duration_tolerance_sec"` // rendered vs narration duration
	MinSizeBytes int64   `yaml:"min_size_bytes"`
}

// Load reads config.yaml and returns a Config with defaults applied
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config with every default applied, for tests and for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Paths.Catalog == "" {
		c.Paths.Catalog = "content/catalog.json"
	}
	if c.Paths.State == "" {
		c.Paths.State = "content/rotation_state.json"
	}
	if c.Paths.UsageLog == "" {
		c.Paths.UsageLog = "logs/api_usage.json"
	}
	if c.Paths.Ledger == "" {
		c.Paths.Ledger = "logs/run_ledger.jsonl"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Cache == "" {
		c.Paths.Cache = "cache/images"
	}
	if c.Paths.Lock == "" {
		c.Paths.Lock = "logs/folklorovich.lock"
	}
	if c.Fetch.Service == "" {
		c.Fetch.Service = "unsplash"
	}
	if c.Fetch.Endpoint == "" {
		c.Fetch.Endpoint = "https://api.unsplash.com"
	}
	if c.Fetch.RequestCount <= 0 {
		c.Fetch.RequestCount = 6
	}
	if c.Fetch.MinCount <= 0 {
		c.Fetch.MinCount = 3
	}
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 30
	}
	if c.Quota.DailyLimit <= 0 {
		c.Quota.DailyLimit = 50
	}
	if c.Quota.WarnThreshold <= 0 {
		c.Quota.WarnThreshold = 40
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelaySec <= 0 {
		c.Retry.BaseDelaySec = 2
	}
	if c.Voice.MinDurationSec <= 0 {
		c.Voice.MinDurationSec = 15
	}
	if c.Voice.MaxDurationSec <= 0 {
		c.Voice.MaxDurationSec = 45
	}
	if c.Collage.Width <= 0 {
		c.Collage.Width = 1080
	}
	if c.Collage.Height <= 0 {
		c.Collage.Height = 1920
	}
	if c.Collage.MinImages <= 0 {
		c.Collage.MinImages = 3
	}
	if len(c.Collage.Layouts) == 0 {
		c.Collage.Layouts = []string{"vertical_stack", "hero_top", "hero_bottom"}
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = 30
	}
	if c.Render.ToleranceSec <= 0 {
		c.Render.ToleranceSec = 3
	}
	if c.Render.MinSizeBytes <= 0 {
		c.Render.MinSizeBytes = 500 * 1024
	}
}
