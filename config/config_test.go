package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Resolver.BaseURL != "https://www.apkmirror.com" {
		t.Errorf("unexpected base URL: %s", cfg.Resolver.BaseURL)
	}
	if cfg.Resolver.MaxResults != 10 {
		t.Errorf("expected max_results 10, got %d", cfg.Resolver.MaxResults)
	}
	if cfg.Resolver.RateLimitDelay != 2*time.Second {
		t.Errorf("expected rate_limit_delay 2s, got %s", cfg.Resolver.RateLimitDelay)
	}
	if !cfg.Resolver.SkipCountsAgainstBudget {
		t.Error("duplicate skips should count against the budget by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APKSCOUT_MAX_RESULTS", "4")
	t.Setenv("APKSCOUT_RATE_LIMIT_DELAY", "0.5")
	t.Setenv("APKSCOUT_TIMEOUT", "3s")
	t.Setenv("APKSCOUT_USER_AGENT", "test-agent/1.0")
	t.Setenv("APKSCOUT_API_KEYS", "a, b,,c")

	cfg := Load()

	if cfg.Resolver.MaxResults != 4 {
		t.Errorf("expected max_results 4, got %d", cfg.Resolver.MaxResults)
	}
	if cfg.Resolver.RateLimitDelay != 500*time.Millisecond {
		t.Errorf("bare seconds should parse, got %s", cfg.Resolver.RateLimitDelay)
	}
	if cfg.Resolver.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", cfg.Resolver.Timeout)
	}
	if cfg.Resolver.UserAgent != "test-agent/1.0" {
		t.Errorf("unexpected user agent: %s", cfg.Resolver.UserAgent)
	}
	if got := strings.Join(cfg.Auth.APIKeys, "|"); got != "a|b|c" {
		t.Errorf("unexpected API keys: %s", got)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apkscout.yaml")
	content := `
resolver:
  max_results: 3
  rate_limit_delay: 750ms
  skip_counts_against_budget: false
challenge:
  enabled: false
log:
  format: text
webhook:
  timeout: 2s
  secret: hush
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Resolver.MaxResults != 3 {
		t.Errorf("expected max_results 3, got %d", cfg.Resolver.MaxResults)
	}
	if cfg.Resolver.RateLimitDelay != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.Resolver.RateLimitDelay)
	}
	if cfg.Resolver.SkipCountsAgainstBudget {
		t.Error("file should override the skip policy")
	}
	if cfg.Challenge.Enabled {
		t.Error("file should disable the challenge browser")
	}
	if cfg.Resolver.Timeout != 10*time.Second {
		t.Errorf("unset keys should keep defaults, got timeout %s", cfg.Resolver.Timeout)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected text log format, got %s", cfg.Log.Format)
	}
	if cfg.Webhook.Timeout != 2*time.Second || cfg.Webhook.Secret != "hush" {
		t.Errorf("unexpected webhook config: %+v", cfg.Webhook)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	content := "resolver:\n  max_results: 0\n  workers: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "max_results") {
		t.Errorf("error should mention max_results: %v", err)
	}
	if !strings.Contains(err.Error(), "workers") {
		t.Errorf("error should mention workers: %v", err)
	}
}

func TestLoadFileRejectsUnitlessDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unitless.yaml")
	if err := os.WriteFile(path, []byte("resolver:\n  rate_limit_delay: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for a duration without a unit")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
