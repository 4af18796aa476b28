package config

import "time"

// CLIConfig is the textnonce-cli profile.
type CLIConfig struct {
	// Server is the base URL of textnonce-server.
	Server string `koanf:"server" json:"server" yaml:"server"`
	APIKey string `koanf:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// CACert is a PEM bundle trusted in addition to the system roots.
	CACert   string        `koanf:"ca_cert" json:"ca_cert,omitempty" yaml:"ca_cert,omitempty"`
	Insecure bool          `koanf:"insecure" json:"insecure" yaml:"insecure,omitempty"`
	Output   string        `koanf:"output" json:"output" yaml:"output"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
}

// Default returns the built-in profile.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:5080",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}

// Masked returns a copy with the API key hidden, for display.
func (c *CLIConfig) Masked() *CLIConfig {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "****"
	}
	return &out
}
