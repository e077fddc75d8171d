// Package config loads, normalizes, and validates the TOML configuration for
// the Vellum pipeline.
//
// Load resolves the config path (explicit flag, ~/.config/vellum/config.toml,
// then ./vellum.toml), applies defaults for anything unset, expands ~ in path
// fields, and validates the result. Validation failures are configuration
// errors: fatal at startup, never during per-file processing.
package config
