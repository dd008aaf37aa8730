package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile builds the environment configuration and overlays the YAML file at
// path on top of it. Keys missing from the file keep their env/default value.
// Durations in the file use Go syntax ("2s", "500ms").
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the resolver settings are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Resolver.BaseURL == "" {
		errs = append(errs, errors.New("resolver.base_url is required"))
	}
	if c.Resolver.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("resolver.max_results must be at least 1, got %d", c.Resolver.MaxResults))
	}
	if c.Resolver.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("resolver.timeout must be positive, got %s", c.Resolver.Timeout))
	}
	if c.Resolver.RateLimitDelay < 0 {
		errs = append(errs, fmt.Errorf("resolver.rate_limit_delay must not be negative, got %s", c.Resolver.RateLimitDelay))
	}
	if c.Resolver.Workers < 1 {
		errs = append(errs, fmt.Errorf("resolver.workers must be at least 1, got %d", c.Resolver.Workers))
	}
	if c.Challenge.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("challenge.max_failures must be at least 1, got %d", c.Challenge.MaxFailures))
	}
	return errors.Join(errs...)
}
