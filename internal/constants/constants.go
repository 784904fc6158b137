package constants

// Advisory lock ids. Each long-running coordination point gets its own id so
// independent work never contends on the same lock.
const (
	MigrationLock = iota
	BootstrapLock
	PollTickLock
)

const (
	// MaxDeliveryAttempts bounds backend redelivery of a failed job. The
	// at-most-once guarantee does not depend on this; retries re-run the
	// guarded protocol.
	MaxDeliveryAttempts = 5
)
