package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv overlays environment variables onto cfg.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("AETHERNAV_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if level := os.Getenv("AETHERNAV_LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}

	if secret := os.Getenv("AETHERNAV_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	if url := os.Getenv("AETHERNAV_SINK_URL"); url != "" {
		cfg.Events.SinkURL = url
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Reasoning.APIKey = key
	}

	if model := os.Getenv("AETHERNAV_REASONING_MODEL"); model != "" {
		cfg.Reasoning.Model = model
	}

	if timeout := os.Getenv("AETHERNAV_REASONING_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Reasoning.Timeout = d
		}
	}
}

// GetEnvOrDefault returns an environment variable or the fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
