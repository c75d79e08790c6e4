// Package duration provides canonical time constants for the Fenrir core.
// This is the single source of truth for time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.Campaign)
//	conn.SetReadDeadline(time.Now().Add(duration.RawSocketRead))
//
// Do not hardcode time.Duration values like `30 * time.Second`; reference
// the appropriate constant from this package instead.
package duration

import "time"

// HTTP client timeouts.
const (
	// HTTPAttempt bounds one fuzzing attempt end to end (30s)
	HTTPAttempt = 30 * time.Second

	// HTTPProbing is for quick health checks and baselines (5s)
	HTTPProbing = 5 * time.Second
)

// Raw socket timeouts used by the smuggling engine.
const (
	// RawSocketDial bounds the TCP/TLS connect (10s)
	RawSocketDial = 10 * time.Second

	// RawSocketRead bounds the blocked read for a probe response; on
	// expiry the partial data collected so far is returned, not an error
	// (10s)
	RawSocketRead = 10 * time.Second

	// InterProbeDelay is the pause between sequential smuggling probes
	// so target-side rate limiting does not confound scoring (100ms)
	InterProbeDelay = 100 * time.Millisecond
)

// Campaign-level bounds.
const (
	// Campaign bounds a full multi-category run (15min)
	Campaign = 15 * time.Minute

	// WebSocketHandshake bounds the upgrade handshake (10s)
	WebSocketHandshake = 10 * time.Second

	// WebSocketRead bounds the wait for one echoed message (5s)
	WebSocketRead = 5 * time.Second
)
