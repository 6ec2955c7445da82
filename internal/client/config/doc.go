// Package config loads runtime configuration for the artstore client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   base URL of the backend
//	-k string   public API key
//	-s string   path of the local state database file
//	-w int      guard wait before forcing the login redirect (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "5s" or integer nanoseconds:
//
//	{
//	  "backend_url": "http://127.0.0.1:8080",
//	  "anon_key": "public-anon-key",
//	  "local_state_path": "artstore.db",
//	  "bootstrap_timeout": "5s",
//	  "guard_max_wait": "5s",
//	  "sign_up_retry_delay": "1s",
//	  "refresh_lead": "30s"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
