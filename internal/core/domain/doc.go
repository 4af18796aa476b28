// Package domain defines the TextNonce domain types: issuance batches and
// the coded errors returned across service and transport boundaries.
package domain
