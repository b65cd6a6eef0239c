// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	Port      int
	LogLevel  string
	LogPretty bool
	Shots     int // circuit executions per quantum evaluation
	Runs      int // Monte-Carlo trials per sweep point
}

// Load reads configuration from environment variables, consulting a
// .env file first if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvAsInt("DENSECODE_PORT", 8080),
		LogLevel:  getEnv("DENSECODE_LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("DENSECODE_LOG_PRETTY", false),
		Shots:     getEnvAsInt("DENSECODE_SHOTS", 1024),
		Runs:      getEnvAsInt("DENSECODE_RUNS", 800),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Shots < 1 {
		return fmt.Errorf("shots must be positive: %d", c.Shots)
	}
	if c.Runs < 1 {
		return fmt.Errorf("runs must be positive: %d", c.Runs)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
