package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the connection settings shared by all modes. Values come from
// the environment; flags cover per-mode tuning (ports, intervals, prefetch).
type Config struct {
	Database Database `envPrefix:"DB_"`
	RabbitMQ RabbitMQ `envPrefix:"RABBITMQ_"`
}

type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME"`
}

type RabbitMQ struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5672"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
}

// Load parses the environment into a Config and validates required fields.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "DB_PORT must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "DB_USER is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "DB_PASSWORD is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "DB_NAME is required")
	}

	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "RABBITMQ_PORT must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "RABBITMQ_USER is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "RABBITMQ_PASSWORD is required")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
