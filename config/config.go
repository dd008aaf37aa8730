package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Resolver  ResolverConfig  `yaml:"resolver"`
	Challenge ChallengeConfig `yaml:"challenge"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Output    OutputConfig    `yaml:"output"`
}

// ResolverConfig controls how listings are paged and resolved.
type ResolverConfig struct {
	// BaseURL is the listing site root.
	BaseURL string `yaml:"base_url"` // default: "https://www.apkmirror.com"

	// Timeout is the per-request deadline.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// RateLimitDelay is the minimum spacing between outbound requests.
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"` // default: 2s

	// MaxResults is the attempt budget per query and the listing read cap.
	MaxResults int `yaml:"max_results"` // default: 10

	// UserAgent overrides the browser-like default.
	UserAgent string `yaml:"user_agent"`

	// SkipCountsAgainstBudget makes duplicate fast-path skips consume an
	// attempt, exactly like a resolved or failed candidate.
	SkipCountsAgainstBudget bool `yaml:"skip_counts_against_budget"` // default: true

	// Workers is the number of queries resolved concurrently.
	Workers int `yaml:"workers"` // default: 1
}

// ChallengeConfig controls the browser used to pass the anti-bot challenge.
type ChallengeConfig struct {
	// Enabled toggles the browser fallback. Without it a challenge is a
	// hard failure.
	Enabled bool `yaml:"enabled"` // default: true

	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is used by both the HTTP client and the browser.
	Proxy string `yaml:"proxy"`

	// SolveTimeout bounds one challenge solve.
	SolveTimeout time.Duration `yaml:"solve_timeout"` // default: 45s

	// Backoff is the pause before re-attempting a solve after a failure.
	Backoff time.Duration `yaml:"backoff"` // default: 30s

	// MaxFailures is the number of consecutive failed solves after which
	// the session is considered blocked and the run aborts.
	MaxFailures int `yaml:"max_failures"` // default: 3

	// ClearanceTTL is how long solved cookies are trusted per domain.
	ClearanceTTL time.Duration `yaml:"clearance_ttl"` // default: 25m
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting on the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 1

	// Burst is the maximum burst size per API key.
	Burst int `yaml:"burst"` // default: 3
}

// CacheConfig controls the listing-page cache shared across queries.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached listings.
	MaxEntries int `yaml:"max_entries"` // default: 500

	// TTL is how long a cached listing stays valid.
	TTL time.Duration `yaml:"ttl"` // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json", "text", "pretty" or "auto"; default: "auto"
}

// WebhookConfig controls batch completion notifications.
type WebhookConfig struct {
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// Secret signs payloads for batches that do not carry their own.
	Secret string `yaml:"secret"`
}

// OutputConfig controls where resolved entries are written.
type OutputConfig struct {
	// File is the JSON array file entries are merged into.
	File string `yaml:"file"` // default: "data/direct_downloads.json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Resolver: ResolverConfig{
			BaseURL:                 envOr("APKSCOUT_BASE_URL", "https://www.apkmirror.com"),
			Timeout:                 envDurationOr("APKSCOUT_TIMEOUT", 10*time.Second),
			RateLimitDelay:          envDurationOr("APKSCOUT_RATE_LIMIT_DELAY", 2*time.Second),
			MaxResults:              envIntOr("APKSCOUT_MAX_RESULTS", 10),
			UserAgent:               os.Getenv("APKSCOUT_USER_AGENT"),
			SkipCountsAgainstBudget: envBoolOr("APKSCOUT_SKIP_COUNTS_AGAINST_BUDGET", true),
			Workers:                 envIntOr("APKSCOUT_WORKERS", 1),
		},
		Challenge: ChallengeConfig{
			Enabled:      envBoolOr("APKSCOUT_CHALLENGE_ENABLED", true),
			Headless:     envBoolOr("APKSCOUT_HEADLESS", true),
			NoSandbox:    envBoolOr("APKSCOUT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("APKSCOUT_BROWSER_BIN"),
			Proxy:        os.Getenv("APKSCOUT_PROXY"),
			SolveTimeout: envDurationOr("APKSCOUT_SOLVE_TIMEOUT", 45*time.Second),
			Backoff:      envDurationOr("APKSCOUT_CHALLENGE_BACKOFF", 30*time.Second),
			MaxFailures:  envIntOr("APKSCOUT_CHALLENGE_MAX_FAILURES", 3),
			ClearanceTTL: envDurationOr("APKSCOUT_CLEARANCE_TTL", 25*time.Minute),
		},
		Server: ServerConfig{
			Host: envOr("APKSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("APKSCOUT_PORT", 8080),
			Mode: envOr("APKSCOUT_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("APKSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("APKSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("APKSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("APKSCOUT_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("APKSCOUT_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("APKSCOUT_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("APKSCOUT_LOG_LEVEL", "info"),
			Format: envOr("APKSCOUT_LOG_FORMAT", "auto"),
		},
		Webhook: WebhookConfig{
			Timeout: envDurationOr("APKSCOUT_WEBHOOK_TIMEOUT", 10*time.Second),
			Secret:  os.Getenv("APKSCOUT_WEBHOOK_SECRET"),
		},
		Output: OutputConfig{
			File: envOr("APKSCOUT_OUTPUT_FILE", "data/direct_downloads.json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDurationOr accepts Go durations ("2s", "1m30s") and, for the rate
// limit delay's sake, bare seconds ("2", "0.5").
func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := parseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
