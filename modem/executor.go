// Package modem implements the AT command executor: a request/response
// protocol engine over a half-duplex serial transport, with settle-delay
// pacing, idle-detection response collection, error classification and
// bounded retries.
package modem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lukejenkins/cwd/at"
)

// CommandResult is the outcome of executing one command, after retries.
//
// Success is false when every attempt either carried a device error token
// or failed at the transport level. Raw holds the last raw response text
// (or the last error message when no response was collected). Attempts
// counts transmissions actually made.
type CommandResult struct {
	Success  bool
	Raw      string
	Attempts int
}

// Runner is the executor surface consumed by the scheduler and the smart
// configuration engine. Having the consumers depend on the interface keeps
// them testable without a transport.
type Runner interface {
	Execute(ctx context.Context, cmd string) CommandResult
}

// Transcript receives every sent command and every raw received response
// verbatim. Implementations timestamp and persist the traffic for offline
// protocol debugging, independent of structured logging.
type Transcript interface {
	Sent(cmd string)
	Received(raw string)
}

// Executor owns the serial transport exclusively and serialises all
// command traffic over it. It is not safe for concurrent use; the system
// drives it from a single scheduling goroutine by design.
type Executor struct {
	transport Transport
	config    Config
	log       *slog.Logger
	closed    bool
}

var _ Runner = (*Executor)(nil)

// New dials the transport and returns an executor ready for Init.
func New(ctx context.Context, config Config) (*Executor, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	return &Executor{
		transport: transport,
		config:    config,
		log:       config.Logger.With("component", "executor"),
	}, nil
}

// Init runs the bootstrap sequence: liveness probe, echo off, verbose
// error reporting. Every command must succeed before any other command is
// trusted; a failure here is terminal for the session.
func (e *Executor) Init(ctx context.Context) error {
	for _, cmd := range []string{at.CmdProbe, at.CmdEchoOff, at.CmdVerboseErrors} {
		if r := e.Execute(ctx, cmd); !r.Success {
			return fmt.Errorf("initialize modem: %q failed after %d attempts: %s", cmd, r.Attempts, strings.TrimSpace(r.Raw))
		}
	}
	e.log.Info("modem initialized")
	return nil
}

// Execute runs the command with the configured default retry bound.
func (e *Executor) Execute(ctx context.Context, cmd string) CommandResult {
	return e.ExecuteRetry(ctx, cmd, e.config.MaxRetries)
}

// ExecuteRetry sends the command, collects its response window, and
// classifies the result, retrying up to retries additional times on a
// device-reported error or a transport failure. It makes at most
// retries+1 transmission attempts and never blocks beyond the context.
func (e *Executor) ExecuteRetry(ctx context.Context, cmd string, retries int) CommandResult {
	result := CommandResult{}
	for attempt := 0; attempt <= retries; attempt++ {
		result.Attempts++

		raw, err := e.send(ctx, cmd)
		switch {
		case err != nil:
			// Transport failures and silence retry exactly like a
			// device error; they must not escape to the caller.
			result.Raw = err.Error()
			e.log.Warn("command attempt failed", "cmd", cmd, "attempt", result.Attempts, "error", err)
			if ctx.Err() != nil {
				return result
			}
		case at.IsError(raw):
			result.Raw = raw
			e.log.Warn("command returned error", "cmd", cmd, "attempt", result.Attempts, "response", strings.TrimSpace(raw))
		default:
			result.Success = true
			result.Raw = raw
			return result
		}

		if attempt < retries && !e.pause(ctx) {
			return result
		}
	}
	return result
}

// send writes one command line and collects its response window.
func (e *Executor) send(ctx context.Context, cmd string) (string, error) {
	if e.closed {
		return "", ErrAlreadyClosed
	}
	if e.transport == nil {
		return "", ErrNotInitialized
	}

	if t := e.config.Transcript; t != nil {
		t.Sent(strings.TrimSpace(cmd))
	}

	wire := strings.TrimSpace(cmd) + at.CR
	if _, err := e.transport.Write([]byte(wire)); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}

	if !e.pause(ctx) {
		return "", ctx.Err()
	}

	raw, err := e.drain(ctx)
	if raw != "" {
		if t := e.config.Transcript; t != nil {
			t.Received(raw)
		}
	}
	return raw, err
}

// drain reads the transport until it goes quiet. Each zero-byte read is
// one idle window (the transport's read timeout); the response is complete
// after the first idle window once any bytes have arrived. A modem that
// never produces a byte within MaxIdleWindows windows is reported silent.
func (e *Executor) drain(ctx context.Context) (string, error) {
	var buf strings.Builder
	tmp := make([]byte, 512)
	idle := 0

	for {
		if err := ctx.Err(); err != nil {
			return buf.String(), err
		}

		n, err := e.transport.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])
			idle = 0
			continue
		}
		if err != nil {
			if buf.Len() > 0 {
				// Partial response followed by a transport error:
				// surface what arrived, the classifier decides.
				return buf.String(), nil
			}
			return "", fmt.Errorf("read response: %w", err)
		}

		idle++
		if buf.Len() > 0 {
			return buf.String(), nil
		}
		if idle >= e.config.MaxIdleWindows {
			return "", ErrNoResponse
		}
	}
}

// pause waits one settle delay, returning false if the context ended
// first.
func (e *Executor) pause(ctx context.Context) bool {
	t := time.NewTimer(e.config.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close shuts down the executor and releases the transport. After Close
// the executor cannot be reused.
func (e *Executor) Close() error {
	if e.closed {
		return ErrAlreadyClosed
	}
	e.closed = true
	if e.transport != nil {
		return e.transport.Close()
	}
	return nil
}
