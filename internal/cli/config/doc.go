// Package config holds the textnonce-cli profile.
//
// The profile lives in ~/.textnonce/cli.yaml and supplies defaults for the
// global flags. TEXTNONCE_CLI_* environment variables override the file, and
// explicit flags override both.
package config
