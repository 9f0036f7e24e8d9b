package config

import (
	"fmt"
	"os"
	"time"

	"github.com/FairForge/aethernav/internal/registry"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Events    EventsConfig             `yaml:"events"`
	Reasoning ReasoningConfig          `yaml:"reasoning"`
	Catalog   []registry.ServiceRecord `yaml:"catalog"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	LogLevel          string `yaml:"log_level"`
	JWTSecret         string `yaml:"jwt_secret"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
	Burst             int    `yaml:"burst"`
}

type EventsConfig struct {
	ForwardingEnabled bool          `yaml:"forwarding_enabled"`
	SinkURL           string        `yaml:"sink_url"`
	ForwardTimeout    time.Duration `yaml:"forward_timeout"`
}

type ReasoningConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			LogLevel:          "info",
			RequestsPerSecond: 100,
			Burst:             200,
		},
		Events: EventsConfig{
			ForwardingEnabled: true,
			ForwardTimeout:    2 * time.Second,
		},
		Reasoning: ReasoningConfig{
			Timeout: 10 * time.Second,
		},
		Catalog: registry.DefaultCatalog(),
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if len(c.Catalog) == 0 {
		return fmt.Errorf("config: service catalog is empty")
	}
	seen := make(map[string]bool, len(c.Catalog))
	for _, rec := range c.Catalog {
		if rec.ID == "" {
			return fmt.Errorf("config: catalog entry missing id")
		}
		if seen[rec.ID] {
			return fmt.Errorf("config: duplicate catalog id %q", rec.ID)
		}
		seen[rec.ID] = true
	}
	return nil
}
