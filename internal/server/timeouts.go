package server

import "time"

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second

	// adminWriteSlack covers encoding the batch result after the last unit.
	adminWriteSlack = 30 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second

// writeTimeoutFor keeps the write deadline past a synchronous admin ingest.
// Query routes alone never need more than writeTimeout.
func writeTimeoutFor(adminEnabled bool, runDeadline time.Duration) time.Duration {
	if !adminEnabled {
		return writeTimeout
	}
	if runDeadline <= 0 {
		return 0
	}
	return runDeadline + adminWriteSlack
}
