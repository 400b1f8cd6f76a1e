package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"spwebhooks/logging"
)

// AppConfig holds application-wide system configuration.
// This is infrastructure configuration, not tenant credentials.
type AppConfig struct {
	HTTPAddr        string
	HTTPLogPath     string
	HTTPLogJSON     bool
	DebugAPIKey     string
	ShutdownTimeout time.Duration
	Site            *SiteConfig
	Webhook         *WebhookConfig
	Logging         *logging.Config
}

// SiteConfig holds the default SharePoint site coordinates used when a
// request does not name its own, plus client identification settings.
type SiteConfig struct {
	TenantPrefix     string
	SiteRelativePath string
	UserAgent        string
}

// WebhookConfig holds defaults applied to new webhook subscriptions and the
// renewal sweeper settings. A zero RenewalInterval disables the sweeper.
type WebhookConfig struct {
	NotificationURL string
	ExpirationDays  int
	RenewalInterval time.Duration
	RenewalWindow   time.Duration
	RenewalLists    []string
}

// LoadAppConfigFromEnv loads complete application configuration from environment variables.
func LoadAppConfigFromEnv() *AppConfig {
	return &AppConfig{
		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":8080"),
		HTTPLogPath:     getEnvWithDefault("HTTP_LOG_PATH", ""),
		HTTPLogJSON:     getEnvBoolWithDefault("HTTP_LOG_JSON", true),
		DebugAPIKey:     getEnvWithDefault("DEBUG_API_KEY", ""),
		ShutdownTimeout: getEnvDurationWithDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
		Site:            LoadSiteConfigFromEnv(),
		Webhook:         LoadWebhookConfigFromEnv(),
		Logging:         LoadLoggingConfigFromEnv(),
	}
}

// LoadSiteConfigFromEnv loads default site coordinates from environment variables.
func LoadSiteConfigFromEnv() *SiteConfig {
	return &SiteConfig{
		TenantPrefix:     getEnvWithDefault("SP_TENANT_PREFIX", ""),
		SiteRelativePath: getEnvWithDefault("SP_SITE_PATH", ""),
		UserAgent:        getEnvWithDefault("SP_USER_AGENT", "NONISV|spwebhooks|server/1.0"),
	}
}

// LoadWebhookConfigFromEnv loads webhook subscription defaults from environment variables.
func LoadWebhookConfigFromEnv() *WebhookConfig {
	return &WebhookConfig{
		NotificationURL: getEnvWithDefault("WEBHOOK_NOTIFICATION_URL", ""),
		ExpirationDays:  getEnvIntWithDefault("WEBHOOK_EXPIRATION_DAYS", 90),
		RenewalInterval: getEnvDurationWithDefault("WEBHOOK_RENEWAL_INTERVAL", 0),
		RenewalWindow:   getEnvDurationWithDefault("WEBHOOK_RENEWAL_WINDOW", 72*time.Hour),
		RenewalLists:    getEnvListWithDefault("WEBHOOK_RENEWAL_LISTS", nil),
	}
}

// LoadLoggingConfigFromEnv loads logging configuration from environment variables.
func LoadLoggingConfigFromEnv() *logging.Config {
	return &logging.Config{
		Level:  getEnvWithDefault("LOG_LEVEL", "info"),
		Format: getEnvWithDefault("LOG_FORMAT", "json"),
		Output: getEnvWithDefault("LOG_OUTPUT", "stdout"),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(v string, def bool) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Helper functions for environment variable parsing.
func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseBool(value, defaultValue)
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
