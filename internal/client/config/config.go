package config

import "time"

// Config holds runtime settings for the artstore client.
//
// Fields:
//   - BackendURL: base URL of the hosted auth/data backend.
//   - AnonKey: public API key sent with every backend request.
//   - LocalStatePath: path of the sqlite file holding persisted local state.
//   - BootstrapTimeout: deadline for the whole startup auth sequence.
//   - GuardMaxWait: how long the route guard tolerates the loading state
//     before forcing the login redirect.
//   - SignUpRetries / SignUpRetryDelay: polling budget for server-side
//     profile provisioning after registration.
//   - RefreshLead: how far before token expiry the refresh fires.
type Config struct {
	BackendURL     string
	AnonKey        string
	LocalStatePath string

	BootstrapTimeout time.Duration
	GuardMaxWait     time.Duration
	SignUpRetries    uint64
	SignUpRetryDelay time.Duration
	RefreshLead      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:8080"
	c.AnonKey = ""
	c.LocalStatePath = "artstore.db"
	c.BootstrapTimeout = 5 * time.Second
	c.GuardMaxWait = 5 * time.Second
	c.SignUpRetries = 3
	c.SignUpRetryDelay = 1 * time.Second
	c.RefreshLead = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
