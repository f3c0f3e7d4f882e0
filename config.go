package pagekit

import "github.com/goliatone/go-pagekit/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired      = runtimeconfig.ErrDefaultLocaleRequired
	ErrStorageDriverUnknown       = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrWebhookTimeoutInvalid      = runtimeconfig.ErrWebhookTimeoutInvalid
	ErrTriggerLimitInvalid        = runtimeconfig.ErrTriggerLimitInvalid
	ErrCacheRequiresDatabase      = runtimeconfig.ErrCacheRequiresDatabase
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrFormsFeatureRequiredByMail = runtimeconfig.ErrFormsFeatureRequiredByMail
)

const (
	DriverMemory   = runtimeconfig.DriverMemory
	DriverSQLite   = runtimeconfig.DriverSQLite
	DriverPostgres = runtimeconfig.DriverPostgres
)

type (
	Config        = runtimeconfig.Config
	I18NConfig    = runtimeconfig.I18NConfig
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	FormsConfig   = runtimeconfig.FormsConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	Features      = runtimeconfig.Features
)

// DefaultConfig returns a memory-backed configuration with forms and
// layouts enabled.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
