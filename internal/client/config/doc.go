// Package config loads runtime configuration for the Catus client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables (see parseEnv), prefixed CATUS_.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the backend REST API
//	-d string     path to the local SQLite database
//	-debug        enable verbose logging
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the request timeout, so values can
// be strings like "30s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.catus.app/api/v1",
//	  "database_path": "catus.db",
//	  "request_timeout": "30s",
//	  "storage_quota_bytes": 52428800,
//	  "debug": false,
//	  "mode": "production"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the client
//   - func LoadConfig() *Config       — defaults, then env, JSON, flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
package config
