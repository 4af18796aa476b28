// Package service provides the TextNonce domain services.
//
//   - NonceService: validated, metered batch issuance on top of a nonce.Generator
//   - Checkpointer: persists the clock guard's high-water mark so a restarted
//     process never reissues instants from before the crash
//
// Storage is reached through the CheckpointStore interface so the services
// can be tested without Badger.
package service
