package modem

import "errors"

var (
	// ErrNoDialer is returned when an Executor is constructed without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order
	// to establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on an
	// Executor whose transport was never established.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on an Executor
	// that has already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrNoResponse is returned when the response window elapses without
	// the modem producing a single byte. It is treated like a transport
	// error by the retry loop: silence is indistinguishable from a dead
	// link.
	ErrNoResponse = errors.New("no response from modem")
)
