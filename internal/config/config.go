package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// RuntimeConfig is the process's environment-derived configuration. It does
// not hold editorial policy (that's OwnerCard) — only wiring: where state
// lives, which secrets gate the control API, and which optional integrations
// are enabled.
type RuntimeConfig struct {
	Env                     string // "dev", "staging", "production"
	OwnerCardPath           string
	StateDBPath             string
	ControlToken            string
	ControlSecret           string
	AlertWebhookURL         string
	AlertCooldownSecs       int
	AlertQAMin              float64
	AlertFallbackGrowth     float64
	AlertFallbackAbs        float64
	AlertDiscoveryFailCount int

	CloudflareBaseURL string
	CloudflareToken   string
	CloudflareSecret  string

	BackupS3Bucket    string
	BackupS3AccountID string
	BackupS3AccessKey string
	BackupS3Secret    string

	DiscoveryFeedURLs []string
	HostDiskPath      string
	ControlAddr       string
	LogLevel          string
	LogPretty         bool

	RunOnce      bool
	ForceNightly bool
}

const (
	devToken  = "dev-token"
	devSecret = "dev-secret"
)

// Load reads RuntimeConfig from the environment. A .env file in the working
// directory is loaded first (if present) so local development doesn't
// require exporting every variable by hand; real environment variables
// always take precedence since godotenv.Load never overwrites an existing
// value.
func Load() (*RuntimeConfig, error) {
	_ = godotenv.Load()

	cfg := &RuntimeConfig{
		Env:             getEnvDefault("VVTV_ENV", "dev"),
		OwnerCardPath:   getEnvDefault("VVTV_OWNER_CARD", "owner_card.json"),
		StateDBPath:     getEnvDefault("VVTV_STATE_DB", "runtime/state.db"),
		ControlToken:    getEnvDefault("VVTV_CONTROL_TOKEN", devToken),
		ControlSecret:   getEnvDefault("VVTV_CONTROL_SECRET", devSecret),
		AlertWebhookURL: os.Getenv("VVTV_ALERT_WEBHOOK_URL"),

		AlertCooldownSecs:       getEnvInt("VVTV_ALERT_COOLDOWN_SECS", 900),
		AlertQAMin:              getEnvFloat("VVTV_ALERT_QA_MIN", 0.85),
		AlertFallbackGrowth:     getEnvFloat("VVTV_ALERT_FALLBACK_GROWTH", 0.15),
		AlertFallbackAbs:        getEnvFloat("VVTV_ALERT_FALLBACK_ABS", 0.30),
		AlertDiscoveryFailCount: getEnvInt("VVTV_ALERT_DISCOVERY_FAIL_COUNT", 3),

		CloudflareBaseURL: os.Getenv("VVTV_CLOUDFLARE_BASE_URL"),
		CloudflareToken:   os.Getenv("VVTV_CLOUDFLARE_TOKEN"),
		CloudflareSecret:  os.Getenv("VVTV_CLOUDFLARE_SECRET"),

		BackupS3Bucket:    os.Getenv("VVTV_BACKUP_S3_BUCKET"),
		BackupS3AccountID: os.Getenv("VVTV_BACKUP_S3_ACCOUNT_ID"),
		BackupS3AccessKey: os.Getenv("VVTV_BACKUP_S3_ACCESS_KEY"),
		BackupS3Secret:    os.Getenv("VVTV_BACKUP_S3_SECRET"),

		DiscoveryFeedURLs: splitCSV(os.Getenv("VVTV_DISCOVERY_FEED_URLS")),
		HostDiskPath:      getEnvDefault("VVTV_HOST_DISK_PATH", "/"),
		ControlAddr:       getEnvDefault("VVTV_CONTROL_ADDR", "127.0.0.1:7070"),
		LogLevel:          getEnvDefault("VVTV_LOG_LEVEL", "info"),
		LogPretty:         os.Getenv("VVTV_LOG_PRETTY") == "1",

		RunOnce:      os.Getenv("VVTV_RUN_ONCE") == "1",
		ForceNightly: os.Getenv("VVTV_FORCE_NIGHTLY") == "1",
	}

	absDB, err := filepath.Abs(cfg.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state db directory: %w", err)
	}
	cfg.StateDBPath = absDB

	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecrets aborts startup outside "dev" when the control token/secret
// are missing or still at their insecure defaults, and requires Cloudflare
// token+secret whenever a base URL is configured.
func (c *RuntimeConfig) validateSecrets() error {
	if c.Env != "dev" {
		if c.ControlToken == "" || c.ControlToken == devToken {
			return fmt.Errorf("VVTV_CONTROL_TOKEN must be set to a non-default value outside dev")
		}
		if c.ControlSecret == "" || c.ControlSecret == devSecret {
			return fmt.Errorf("VVTV_CONTROL_SECRET must be set to a non-default value outside dev")
		}
	}

	if c.CloudflareBaseURL != "" {
		if c.CloudflareToken == "" || c.CloudflareSecret == "" {
			return fmt.Errorf("VVTV_CLOUDFLARE_TOKEN and VVTV_CLOUDFLARE_SECRET are required when VVTV_CLOUDFLARE_BASE_URL is set")
		}
	}

	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// splitCSV parses a comma-separated env value into a trimmed, non-empty
// slice. An unset or blank value yields nil, not a slice of one empty
// string.
func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
