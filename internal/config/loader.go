package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"chatctl/internal/fsutil"
)

// Config holds the client-side parameters.
// Zero values mean "unspecified" and are replaced by defaults in the CLI.
// Temperature and TopP are pointers because 0 is a valid sampling value;
// nil means unspecified.
type Config struct {
	BaseURL        string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey         string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model          string   `json:"model" yaml:"model" toml:"model"`
	SystemPrompt   string   `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	Temperature    *float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP           *float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	MaxTokens      int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	TimeoutSeconds int      `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

func f64(v float64) *float64 { return &v }

// Default returns the configuration used when nothing else is supplied:
// a local server without auth and moderate sampling.
func Default() Config {
	return Config{
		BaseURL:        "http://127.0.0.1:8080",
		Temperature:    f64(0.7),
		TopP:           f64(0.8),
		MaxTokens:      200,
		TimeoutSeconds: 120,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// OverlayEnv returns a copy of c with CHATCTL_* environment variables applied
// on top. Unset variables leave the field untouched.
func (c Config) OverlayEnv() Config {
	if v := os.Getenv("CHATCTL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CHATCTL_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CHATCTL_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CHATCTL_SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("CHATCTL_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = &f
		}
	}
	if v := os.Getenv("CHATCTL_TOP_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TopP = &f
		}
	}
	if v := os.Getenv("CHATCTL_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("CHATCTL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	return c
}

// Fill replaces unspecified fields with the values from def.
func (c Config) Fill(def Config) Config {
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = def.SystemPrompt
	}
	if c.Temperature == nil {
		c.Temperature = def.Temperature
	}
	if c.TopP == nil {
		c.TopP = def.TopP
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	return c
}

// Timeout converts TimeoutSeconds to a duration (0 means no timeout).
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
