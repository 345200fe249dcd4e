package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	httpx402 "github.com/mark3labs/x402-gate/http"
)

// Config is the gateway configuration file.
type Config struct {
	Listen      string            `yaml:"listen"`
	Upstream    string            `yaml:"upstream"`
	MetricsPath string            `yaml:"metrics_path"`
	Log         LogConfig         `yaml:"log"`
	Facilitator FacilitatorConfig `yaml:"facilitator"`
	Routes      []RouteEntry      `yaml:"routes"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Evaluations logs one line per gated request in addition to the engine's own logs.
	Evaluations bool `yaml:"evaluations"`
}

// FacilitatorConfig configures the shared facilitator client.
type FacilitatorConfig struct {
	MaxConnsPerHost int `yaml:"max_conns_per_host"`

	// CDP names the environment variables holding Coinbase CDP API credentials.
	// Secrets never live in the config file itself.
	CDP *CDPConfig `yaml:"cdp"`
}

// CDPConfig names the environment variables holding a CDP API key.
type CDPConfig struct {
	KeyNameEnv   string `yaml:"key_name_env"`
	KeySecretEnv string `yaml:"key_secret_env"`
}

// RouteEntry mounts a gated route at Path.
type RouteEntry struct {
	Path                 string `yaml:"path"`
	httpx402.RouteConfig `yaml:",inline"`
}

// LoadConfig reads and validates the file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML, applies defaults and validates. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the gateway settings and activates every route once so that
// configuration errors surface before the listener opens.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream must be an absolute http(s) URL, got %q", c.Upstream)
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metrics_path must start with '/', got %q", c.MetricsPath)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Facilitator.MaxConnsPerHost < 0 {
		return fmt.Errorf("facilitator.max_conns_per_host cannot be negative")
	}
	if cdp := c.Facilitator.CDP; cdp != nil && (cdp.KeyNameEnv == "" || cdp.KeySecretEnv == "") {
		return fmt.Errorf("facilitator.cdp requires key_name_env and key_secret_env")
	}

	if len(c.Routes) == 0 {
		return errors.New("at least one route is required")
	}
	seen := make(map[string]bool, len(c.Routes))
	var errs []error
	for i, r := range c.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			errs = append(errs, fmt.Errorf("routes[%d]: path must start with '/', got %q", i, r.Path))
			continue
		}
		if seen[r.Path] {
			errs = append(errs, fmt.Errorf("routes[%d]: duplicate path %s", i, r.Path))
			continue
		}
		seen[r.Path] = true
		if r.Path == c.MetricsPath {
			errs = append(errs, fmt.Errorf("routes[%d]: path %s collides with metrics_path", i, r.Path))
			continue
		}
		if _, err := httpx402.NewRoute(r.RouteConfig); err != nil {
			errs = append(errs, fmt.Errorf("routes[%d] (%s): %w", i, r.Path, err))
		}
	}
	return errors.Join(errs...)
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger described by l.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := l.level()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
