package config

import "time"

// Build modes recognized in Config.Mode.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds runtime settings for the Catus client.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API, including the /api/v1 path.
//   - DatabasePath: location of the local SQLite database (ledger + credentials).
//   - RequestTimeout: per-request HTTP timeout.
//   - StorageQuotaBytes: soft ceiling for the local database; the ledger starts
//     evicting synced history as usage approaches it.
//   - Debug: enables verbose logging regardless of Mode.
//   - Mode: development or production; development also enables debug logging.
type Config struct {
	APIBaseURL        string
	DatabasePath      string
	RequestTimeout    time.Duration
	StorageQuotaBytes int64
	Debug             bool
	Mode              string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080/api/v1"
	c.DatabasePath = "catus.db"
	c.RequestTimeout = 30 * time.Second
	c.StorageQuotaBytes = 50 << 20
	c.Debug = false
	c.Mode = ModeProduction
}

// Verbose reports whether debug-level logging should be emitted.
func (c *Config) Verbose() bool {
	return c.Debug || c.Mode == ModeDevelopment
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file (if present), and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
