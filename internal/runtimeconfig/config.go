package runtimeconfig

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDefaultLocaleRequired      = errors.New("pagekit config: default locale is required")
	ErrStorageDriverUnknown       = errors.New("pagekit config: storage driver is invalid")
	ErrStorageDSNRequired         = errors.New("pagekit config: storage dsn is required for database drivers")
	ErrWebhookTimeoutInvalid      = errors.New("pagekit config: webhook timeout must be positive")
	ErrTriggerLimitInvalid        = errors.New("pagekit config: trigger limit must be zero or positive")
	ErrCacheRequiresDatabase      = errors.New("pagekit config: cache feature requires a database storage driver")
	ErrLoggingProviderUnknown     = errors.New("pagekit config: logging provider is invalid")
	ErrLoggingLevelInvalid        = errors.New("pagekit config: logging level is invalid")
	ErrLoggingFormatInvalid       = errors.New("pagekit config: logging format is invalid")
	ErrLoggingProviderRequired    = errors.New("pagekit config: logging provider is required when logging is enabled")
	ErrFormsFeatureRequiredByMail = errors.New("pagekit config: mail notifications require the forms feature")
)

// Storage driver identifiers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates feature flags and adapter bindings for the pagekit
// module. Fields intentionally use simple types so host applications can
// extend them later.
type Config struct {
	DefaultLocale string
	I18N          I18NConfig
	Storage       StorageConfig
	Cache         CacheConfig
	Forms         FormsConfig
	Logging       LoggingConfig
	Features      Features
}

// I18NConfig lists the locales translatable fields expand against.
type I18NConfig struct {
	Locales []string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
	DSN    string
}

// CacheConfig captures repository cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// FormsConfig bounds the form rule engine.
type FormsConfig struct {
	WebhookTimeout     time.Duration
	MaxTriggersPerForm int
}

// LoggingConfig selects and tunes the logger provider.
type LoggingConfig struct {
	Enabled   bool
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles optional modules.
type Features struct {
	Forms   bool
	Layouts bool
	Cache   bool
}

// DefaultConfig returns a memory-backed configuration with forms and
// layouts enabled.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		I18N:          I18NConfig{Locales: []string{"en"}},
		Storage:       StorageConfig{Driver: DriverMemory},
		Cache:         CacheConfig{DefaultTTL: 5 * time.Minute},
		Forms: FormsConfig{
			WebhookTimeout:     30 * time.Second,
			MaxTriggersPerForm: 25,
		},
		Logging: LoggingConfig{
			Enabled:  true,
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
		Features: Features{
			Forms:   true,
			Layouts: true,
		},
	}
}

// Validate reports the first configuration inconsistency found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return ErrStorageDriverUnknown
	}

	if c.Forms.WebhookTimeout <= 0 {
		return ErrWebhookTimeoutInvalid
	}
	if c.Forms.MaxTriggersPerForm < 0 {
		return ErrTriggerLimitInvalid
	}

	if c.Features.Cache && c.Storage.Driver == DriverMemory {
		return ErrCacheRequiresDatabase
	}

	if c.Logging.Enabled {
		if strings.TrimSpace(c.Logging.Provider) == "" {
			return ErrLoggingProviderRequired
		}
		if c.Logging.Provider != "gologger" && c.Logging.Provider != "noop" {
			return ErrLoggingProviderUnknown
		}
		switch strings.ToLower(c.Logging.Level) {
		case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
		default:
			return ErrLoggingLevelInvalid
		}
		switch strings.ToLower(c.Logging.Format) {
		case "", "json", "console", "pretty":
		default:
			return ErrLoggingFormatInvalid
		}
	}

	return nil
}

// Locales returns the configured locale list, default first, without
// duplicates.
func (c Config) Locales() []string {
	out := make([]string, 0, len(c.I18N.Locales)+1)
	seen := make(map[string]struct{}, len(c.I18N.Locales)+1)
	appendLocale := func(code string) {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			return
		}
		if _, dup := seen[trimmed]; dup {
			return
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	appendLocale(c.DefaultLocale)
	for _, locale := range c.I18N.Locales {
		appendLocale(locale)
	}
	return out
}
