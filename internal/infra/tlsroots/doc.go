// Package tlsroots builds TLS configurations for the HTTP listener and the
// CLI client: trusted root pools, optional client-certificate verification,
// and a server key pair that can be reloaded when its files change.
package tlsroots
