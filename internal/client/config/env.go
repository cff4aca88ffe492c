package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is a DTO used exclusively for environment parsing. Pointer fields
// distinguish "unset" from zero values so the overlay only touches variables
// that are actually present.
type envConfig struct {
	APIBaseURL        *string        `env:"CATUS_API_BASE_URL"`
	DatabasePath      *string        `env:"CATUS_DATABASE_PATH"`
	RequestTimeout    *time.Duration `env:"CATUS_REQUEST_TIMEOUT"`
	StorageQuotaBytes *int64         `env:"CATUS_STORAGE_QUOTA_BYTES"`
	Debug             *bool          `env:"CATUS_ENABLE_DEBUG"`
	Mode              *string        `env:"CATUS_MODE"`
}

// parseEnv overlays Config with values from the process environment.
// Unset variables leave the corresponding field untouched.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.APIBaseURL != nil {
		cfg.APIBaseURL = *ec.APIBaseURL
	}
	if ec.DatabasePath != nil {
		cfg.DatabasePath = *ec.DatabasePath
	}
	if ec.RequestTimeout != nil {
		cfg.RequestTimeout = *ec.RequestTimeout
	}
	if ec.StorageQuotaBytes != nil {
		cfg.StorageQuotaBytes = *ec.StorageQuotaBytes
	}
	if ec.Debug != nil {
		cfg.Debug = *ec.Debug
	}
	if ec.Mode != nil {
		cfg.Mode = *ec.Mode
	}
}
