package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/artstore/artstore/internal/flagx"
	"github.com/artstore/artstore/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BackendURL       string         `json:"backend_url"`
	AnonKey          string         `json:"anon_key"`
	LocalStatePath   string         `json:"local_state_path"`
	BootstrapTimeout timex.Duration `json:"bootstrap_timeout"`
	GuardMaxWait     timex.Duration `json:"guard_max_wait"`
	SignUpRetries    uint64         `json:"sign_up_retries"`
	SignUpRetryDelay timex.Duration `json:"sign_up_retry_delay"`
	RefreshLead      timex.Duration `json:"refresh_lead"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config; zero values are
//     skipped so the JSON file can set only what it cares about.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
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

	if jc.BackendURL != "" {
		cfg.BackendURL = jc.BackendURL
	}
	if jc.AnonKey != "" {
		cfg.AnonKey = jc.AnonKey
	}
	if jc.LocalStatePath != "" {
		cfg.LocalStatePath = jc.LocalStatePath
	}
	if jc.BootstrapTimeout.Duration != 0 {
		cfg.BootstrapTimeout = time.Duration(jc.BootstrapTimeout.Duration)
	}
	if jc.GuardMaxWait.Duration != 0 {
		cfg.GuardMaxWait = time.Duration(jc.GuardMaxWait.Duration)
	}
	if jc.SignUpRetries != 0 {
		cfg.SignUpRetries = jc.SignUpRetries
	}
	if jc.SignUpRetryDelay.Duration != 0 {
		cfg.SignUpRetryDelay = time.Duration(jc.SignUpRetryDelay.Duration)
	}
	if jc.RefreshLead.Duration != 0 {
		cfg.RefreshLead = time.Duration(jc.RefreshLead.Duration)
	}
}
