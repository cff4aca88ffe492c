package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/catusdev/catus-client/internal/flagx"
	"github.com/catusdev/catus-client/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "30s" or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	APIBaseURL        *string         `json:"api_base_url"`
	DatabasePath      *string         `json:"database_path"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	StorageQuotaBytes *int64          `json:"storage_quota_bytes"`
	Debug             *bool           `json:"debug"`
	Mode              *string         `json:"mode"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags (via flagx.JsonConfigFlags);
// when no path is given, nothing is loaded. Read or unmarshal errors panic —
// a broken config file should stop the program at startup, not later.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.StorageQuotaBytes != nil {
		cfg.StorageQuotaBytes = *jc.StorageQuotaBytes
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	if jc.Mode != nil {
		cfg.Mode = *jc.Mode
	}
}
