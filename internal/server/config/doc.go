// Package config defines the textnonce-server configuration.
//
//   - spec.go: the ServerConfig structure and its koanf keys
//   - default.go: default values
//   - verify.go: validation run before anything starts
//   - sanitize.go: a copy safe to log
//
// Values are loaded by internal/infra/confloader from the YAML file,
// TEXTNONCE_* environment variables and flags.
package config
