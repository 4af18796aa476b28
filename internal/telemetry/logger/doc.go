// Package logger provides structured logging for TextNonce.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, dynamic level
//   - context.go: Context-aware logging with request/trace IDs
//   - redact.go: Nonce and credential masking
//
// Issued nonces are session credentials. Attributes whose key names a nonce
// or token keep only the 16-character time segment; secrets and API keys are
// replaced entirely.
package logger
