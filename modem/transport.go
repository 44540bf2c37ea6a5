package modem

import (
	"context"
	"io"
)

// Transport represents an established, bidirectional byte stream to a
// cellular modem.
//
// A Transport is assumed to be already connected and ready for use. The
// executor treats it as an opaque byte stream: Write sends command bytes,
// Read returns whatever response bytes are available. A Read that times
// out with no data must return (0, nil); the executor relies on zero-byte
// reads for its idle detection. Typical implementations are serial ports
// and in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem.
//
// Dialer abstracts how the connection is created (serial port, emulator,
// test double) and is used during executor construction only. Once a
// Transport is obtained the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may block and
	// should respect cancellation and deadlines provided by the context.
	Dial(ctx context.Context) (Transport, error)
}
