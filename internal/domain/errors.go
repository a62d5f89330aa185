package domain

import "errors"

// Domain errors represent error conditions in the proxy domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("bleproxy: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("bleproxy: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("bleproxy: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("bleproxy: invalid configuration")

	// ErrRegistryFull is returned when every session slot is taken.
	ErrRegistryFull = errors.New("bleproxy: session registry full")

	// ErrSessionClosed is returned when sending on a closed session.
	ErrSessionClosed = errors.New("bleproxy: session closed")

	// ErrPartialWrite is returned when a connection accepted fewer bytes than a frame.
	ErrPartialWrite = errors.New("bleproxy: partial write")

	// ErrInvalidMAC is returned when a hardware address cannot be parsed.
	ErrInvalidMAC = errors.New("bleproxy: invalid MAC address")
)
