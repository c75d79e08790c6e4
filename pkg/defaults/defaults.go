// Package defaults provides canonical default values for the Fenrir core.
// This is the single source of truth for runtime configuration defaults.
//
// Usage:
//
//	cfg.MaxConcurrent = defaults.ConcurrencyMedium
//	preview := body[:defaults.BodyPreviewLen]
//
// Do not scatter hardcoded values like `MaxConcurrent: 10` through the
// codebase; reference the appropriate constant from this package instead.
package defaults

// Version is the current Fenrir core version.
const Version = "1.2.0"

// Concurrency ceilings for the fuzzing executor. Choose based on how
// aggressive the run is allowed to be against the target.
const (
	// ConcurrencyMinimal is for single-attempt debugging runs (1)
	ConcurrencyMinimal = 1

	// ConcurrencyLow is for auth probing and stateful endpoints (5)
	ConcurrencyLow = 5

	// ConcurrencyMedium is the standard campaign setting (10)
	ConcurrencyMedium = 10

	// ConcurrencyHigh is for stateless high-throughput targets (20)
	ConcurrencyHigh = 20
)

// Payload sizing.
const (
	// OversizedSmall is the small oversized-input length (1000)
	OversizedSmall = 1000

	// OversizedMedium is the medium oversized-input length (10000)
	OversizedMedium = 10000

	// OversizedLarge is the large oversized-input length (100000)
	OversizedLarge = 100000
)

// Smuggling engine scoring.
const (
	// SmugglingScoreThreshold is the minimum indicator count for a probe
	// to be flagged potentially successful. Preserved from observed field
	// behavior; configurable on the engine, not a law of nature.
	SmugglingScoreThreshold = 2

	// ContentLengthTolerance is the allowed byte disagreement between a
	// declared Content-Length and the actual body before the mismatch
	// indicator fires (10)
	ContentLengthTolerance = 10

	// BodyPreviewLen bounds the response body preview kept on a
	// smuggling outcome (200)
	BodyPreviewLen = 200
)

// Mutation knowledge base.
const (
	// MaxSuccessesPerRule caps recorded successful payloads per rule so a
	// long-lived process does not grow without bound (50)
	MaxSuccessesPerRule = 50
)

// Network buffers.
const (
	// ReadChunkSize is the raw-socket receive buffer size (4096)
	ReadChunkSize = 4096

	// MaxRawResponse bounds how much of a raw smuggling response is
	// retained (1 MiB)
	MaxRawResponse = 1 << 20
)
