// Package handler implements the TextNonce HTTP endpoints.
//
//   - nonce.go: GET and POST /nonces
//   - admin.go: service status
//   - health.go: liveness and readiness probes
//
// Every JSON response uses the Response envelope. Errors carry the
// DomainError code in both the body and the X-Error-Code header, and the
// HTTP status is taken from the code's numeric suffix.
package handler
