// Package shutdown coordinates graceful termination: it waits for SIGINT,
// SIGTERM or an explicit Trigger and runs named cleanup hooks in reverse
// registration order under a shared timeout.
package shutdown
