package modem

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialDialer opens a modem over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate for the link. Defaults to 115200.
	BaudRate int
	// ReadTimeout bounds a single Read on the port. A Read returns
	// (0, nil) when it expires, which is what the executor's idle
	// detection expects. Defaults to 200ms.
	ReadTimeout time.Duration
}

// Dial opens and configures the serial port.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, fmt.Errorf("cwd: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.PortName == "" {
		return nil, fmt.Errorf("cwd: serial port name is required")
	}

	baud := d.BaudRate
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.Open(d.PortName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}

	timeout := d.ReadTimeout
	if timeout == 0 {
		timeout = 200 * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", d.PortName, err)
	}

	// Discard anything queued before we attached, e.g. boot chatter or a
	// response to a command from a previous session.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", d.PortName, err)
	}

	return port, nil
}

// ListPorts enumerates the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
