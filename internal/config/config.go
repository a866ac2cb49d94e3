package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Validation struct {
		BatchSize           int      `yaml:"batch_size"`
		PageLoadTimeoutSecs int      `yaml:"page_load_timeout_seconds"`
		LinkPatterns        []string `yaml:"link_patterns"` // SQL LIKE patterns for supported sources
	} `yaml:"validation"`

	Region struct {
		Country        string            `yaml:"country"` // e.g. "Israel"
		Code           string            `yaml:"code"`    // two-letter, e.g. "IL"
		KnownLocations map[string]string `yaml:"known_locations"`
	} `yaml:"region"`

	OpenCage struct {
		Endpoint    string `yaml:"endpoint"`
		APIKeyEnv   string `yaml:"api_key_env"`
		Limit       int    `yaml:"limit"`
		Language    string `yaml:"language"`
		TimeoutSecs int    `yaml:"timeout_seconds"`
	} `yaml:"opencage"`

	OpenAI struct {
		BaseURL      string `yaml:"base_url"`
		Model        string `yaml:"model"`
		APIKeyEnv    string `yaml:"api_key_env"`
		TimeoutSecs  int    `yaml:"timeout_seconds"`
		MaxHTMLBytes int    `yaml:"max_html_bytes"` // HTML budget per extraction prompt
	} `yaml:"openai"`

	RateLimit struct {
		ReqPerSec float64 `yaml:"req_per_sec"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Log struct {
		Level  string `yaml:"level"`  // debug | info | warn | error
		Format string `yaml:"format"` // json | text
	} `yaml:"log"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 38561
	}
	if c.Validation.BatchSize == 0 {
		c.Validation.BatchSize = 5
	}
	if c.Validation.PageLoadTimeoutSecs == 0 {
		c.Validation.PageLoadTimeoutSecs = 15
	}
	if len(c.Validation.LinkPatterns) == 0 {
		c.Validation.LinkPatterns = []string{"%greenhouse.io%", "%comeet%"}
	}
	if c.Region.Country == "" {
		c.Region.Country = "Israel"
	}
	if c.Region.Code == "" {
		c.Region.Code = "IL"
	}
	if c.OpenCage.Endpoint == "" {
		c.OpenCage.Endpoint = "https://api.opencagedata.com/geocode/v1/json"
	}
	if c.OpenCage.APIKeyEnv == "" {
		c.OpenCage.APIKeyEnv = "OPENCAGE_API_KEY"
	}
	if c.OpenCage.Limit == 0 {
		c.OpenCage.Limit = 1
	}
	if c.OpenCage.Language == "" {
		c.OpenCage.Language = "en"
	}
	if c.OpenCage.TimeoutSecs == 0 {
		c.OpenCage.TimeoutSecs = 5
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.APIKeyEnv == "" {
		c.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.OpenAI.TimeoutSecs == 0 {
		c.OpenAI.TimeoutSecs = 30
	}
	if c.OpenAI.MaxHTMLBytes == 0 {
		c.OpenAI.MaxHTMLBytes = 12000
	}
	if c.RateLimit.ReqPerSec == 0 {
		c.RateLimit.ReqPerSec = 1.0
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 2
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Validation.BatchSize < 1 {
		return fmt.Errorf("validation.batch_size must be >= 1, got %d", c.Validation.BatchSize)
	}
	if c.Validation.PageLoadTimeoutSecs < 1 {
		return fmt.Errorf("validation.page_load_timeout_seconds must be >= 1")
	}
	if len(c.Region.Code) != 2 {
		return fmt.Errorf("region.code must be a two-letter country code, got %q", c.Region.Code)
	}
	return nil
}

// PageLoadTimeout bounds the readiness-marker wait for browser-driven sources.
func (c Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.Validation.PageLoadTimeoutSecs) * time.Second
}

func (c Config) OpenCageTimeout() time.Duration {
	return time.Duration(c.OpenCage.TimeoutSecs) * time.Second
}

func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSecs) * time.Second
}
