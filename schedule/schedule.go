// Package schedule orchestrates a polling session: bootstrap, identity
// verification, the one-time query groups, and the steady loop that
// dispatches the fast/medium/slow command groups at their configured
// cadences.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lukejenkins/cwd/modem"
	"github.com/lukejenkins/cwd/parse"
)

// State of the session.
type State int

const (
	Disconnected State = iota
	Connected
	Verified
	SteadyPolling
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Verified:
		return "verified"
	case SteadyPolling:
		return "polling"
	case ShuttingDown:
		return "shutting down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIdentityMismatch is returned when the connected device fails the
// identity check under the strict policy.
var ErrIdentityMismatch = errors.New("modem identity mismatch")

// Session is the executor surface the scheduler drives: command
// execution plus the bootstrap and the guaranteed disconnect.
type Session interface {
	modem.Runner
	Init(ctx context.Context) error
	Close() error
}

// SampleSink persists sample records that crossed the completeness
// threshold.
type SampleSink interface {
	WriteSample(parse.FieldMap) error
}

// InfoSink persists the modem-info record whenever it changes.
type InfoSink interface {
	WriteInfo(parse.FieldMap) error
}

// LocationSource is an optional external position source, polled once
// per tick. Absence of a fix is not an error.
type LocationSource interface {
	Poll(ctx context.Context) (parse.FieldMap, bool)
}

// Identity configures the device verification step. Empty allow-lists
// disable the check. Under the warn policy a mismatch is logged and the
// session continues; under strict it is fatal.
type Identity struct {
	Strict        bool
	Manufacturers []string
	Models        []string
}

// Groups are the command sets the scheduler dispatches. The one-time
// groups run between verification and the steady loop; the three loop
// groups run at their cadence.
type Groups struct {
	Setup         []string
	ModemInfo     []string
	GNSSInfo      []string
	NetworkConfig []string
	FastLoop      []string
	MediumLoop    []string
	SlowLoop      []string
}

// Config wires a Scheduler.
type Config struct {
	Session  Session
	Registry *parse.Registry
	Groups   Groups
	Identity Identity

	FastInterval   time.Duration
	MediumInterval time.Duration
	SlowInterval   time.Duration
	// Tick is the steady-loop quantum. Defaults to one second.
	Tick time.Duration

	// Samples and Info are optional; nil drops the records.
	Samples  SampleSink
	Info     InfoSink
	Location LocationSource

	Logger *slog.Logger
	Clock  func() time.Time
}

// GroupResult reports one dispatch of a command group.
type GroupResult struct {
	Name    string
	Success int
	Total   int
}

// Scheduler owns the session and drives it from a single goroutine.
type Scheduler struct {
	config Config
	log    *slog.Logger
	acc    *parse.Accumulator
	state  State

	lastFast   time.Time
	lastMedium time.Time
	lastSlow   time.Time
}

// New validates the wiring and returns a scheduler in the Connected
// state (the session's transport is already dialed).
func New(config Config) (*Scheduler, error) {
	if config.Session == nil {
		return nil, errors.New("schedule: session is required")
	}
	if config.Registry == nil {
		return nil, errors.New("schedule: parser registry is required")
	}
	if config.Tick == 0 {
		config.Tick = time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Scheduler{
		config: config,
		log:    config.Logger.With("component", "scheduler"),
		acc:    parse.NewAccumulator(config.Clock),
		state:  Connected,
	}, nil
}

// State reports the current session state.
func (s *Scheduler) State() State { return s.state }

// Run drives the session to completion: bootstrap, identity check, the
// one-time groups, then the steady loop until the context is cancelled.
// With once set, every loop group runs exactly one time instead. The
// session transport is always closed on the way out.
func (s *Scheduler) Run(ctx context.Context, once bool) error {
	defer func() {
		s.state = ShuttingDown
		if err := s.config.Session.Close(); err != nil && !errors.Is(err, modem.ErrAlreadyClosed) {
			s.log.Warn("closing session", "error", err)
		}
		s.state = Disconnected
	}()

	if err := s.config.Session.Init(ctx); err != nil {
		return err
	}
	if err := s.VerifyIdentity(ctx); err != nil {
		return err
	}
	s.state = Verified

	s.runSetup(ctx)
	for _, g := range []struct {
		name string
		cmds []string
	}{
		{"modem_info", s.config.Groups.ModemInfo},
		{"gnss_info", s.config.Groups.GNSSInfo},
		{"network_config", s.config.Groups.NetworkConfig},
	} {
		r := s.runGroup(ctx, g.name, g.cmds)
		s.log.Info("query group completed", "group", r.Name, "success", r.Success, "total", r.Total)
	}

	s.state = SteadyPolling
	s.log.Info("entering steady polling loop", "once", once)

	if once {
		s.pollLocation(ctx)
		for _, r := range []GroupResult{
			s.runGroup(ctx, "fast_loop", s.config.Groups.FastLoop),
			s.runGroup(ctx, "medium_loop", s.config.Groups.MediumLoop),
			s.runGroup(ctx, "slow_loop", s.config.Groups.SlowLoop),
		} {
			s.log.Info("loop group completed", "group", r.Name, "success", r.Success, "total", r.Total)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			s.log.Info("polling cancelled")
			return nil
		}
		s.pollLocation(ctx)
		for _, r := range s.Tick(ctx, s.config.Clock()) {
			s.log.Info("loop group completed", "group", r.Name, "success", r.Success, "total", r.Total)
		}
		if !s.sleep(ctx) {
			s.log.Info("polling cancelled")
			return nil
		}
	}
}

// VerifyIdentity checks the reported manufacturer and model against the
// allow-lists. Matching is a case-insensitive substring test, so "EG25"
// accepts "EG25-G".
func (s *Scheduler) VerifyIdentity(ctx context.Context) error {
	mismatch := func(what, got string) error {
		if s.config.Identity.Strict {
			return fmt.Errorf("%w: unexpected %s %q", ErrIdentityMismatch, what, got)
		}
		s.log.Warn("modem identity mismatch", what, got)
		return nil
	}

	if len(s.config.Identity.Manufacturers) > 0 {
		got, err := s.queryIdentity(ctx, "AT+CGMI", parse.FieldManufacturer)
		if err != nil {
			return err
		}
		if !matchesAny(got, s.config.Identity.Manufacturers) {
			if err := mismatch("manufacturer", got); err != nil {
				return err
			}
		}
	}
	if len(s.config.Identity.Models) > 0 {
		got, err := s.queryIdentity(ctx, "AT+CGMM", parse.FieldModel)
		if err != nil {
			return err
		}
		if !matchesAny(got, s.config.Identity.Models) {
			if err := mismatch("model", got); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) queryIdentity(ctx context.Context, cmd, field string) (string, error) {
	r := s.config.Session.Execute(ctx, cmd)
	if !r.Success {
		return "", fmt.Errorf("identity query %q failed: %s", cmd, strings.TrimSpace(r.Raw))
	}
	fields := s.config.Registry.Decode(cmd, r.Raw)
	v, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("identity query %q returned no %s", cmd, field)
	}
	return v.Text(), nil
}

func matchesAny(got string, allowed []string) bool {
	for _, a := range allowed {
		if strings.Contains(strings.ToUpper(got), strings.ToUpper(a)) {
			return true
		}
	}
	return false
}

// Tick runs every loop group whose interval has elapsed at the given
// instant, in fast, medium, slow order, and returns the dispatches made.
// The zero last-run timestamps make all three groups due on the first
// tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []GroupResult {
	var results []GroupResult
	if now.Sub(s.lastFast) >= s.config.FastInterval {
		results = append(results, s.runGroup(ctx, "fast_loop", s.config.Groups.FastLoop))
		s.lastFast = now
	}
	if now.Sub(s.lastMedium) >= s.config.MediumInterval {
		results = append(results, s.runGroup(ctx, "medium_loop", s.config.Groups.MediumLoop))
		s.lastMedium = now
	}
	if now.Sub(s.lastSlow) >= s.config.SlowInterval {
		results = append(results, s.runGroup(ctx, "slow_loop", s.config.Groups.SlowLoop))
		s.lastSlow = now
	}
	return results
}

// runSetup sends the setup commands, continuing past individual
// failures.
func (s *Scheduler) runSetup(ctx context.Context) {
	for _, cmd := range s.config.Groups.Setup {
		if ctx.Err() != nil {
			return
		}
		if r := s.config.Session.Execute(ctx, cmd); !r.Success {
			s.log.Warn("setup command failed", "cmd", cmd)
		}
	}
}

// runGroup executes one command group, decoding and accumulating each
// successful response. Cancellation is observed between commands, never
// mid-command.
func (s *Scheduler) runGroup(ctx context.Context, name string, cmds []string) GroupResult {
	result := GroupResult{Name: name}
	for _, cmd := range cmds {
		if ctx.Err() != nil {
			return result
		}
		result.Total++
		r := s.config.Session.Execute(ctx, cmd)
		if !r.Success {
			s.log.Warn("command failed", "group", name, "cmd", cmd, "attempts", r.Attempts)
			continue
		}
		result.Success++
		s.apply(s.config.Registry.Decode(cmd, r.Raw))
	}
	return result
}

// pollLocation merges one external position fix into the sample record,
// when a source is configured and has one.
func (s *Scheduler) pollLocation(ctx context.Context) {
	if s.config.Location == nil {
		return
	}
	if fields, ok := s.config.Location.Poll(ctx); ok {
		s.apply(fields)
	}
}

func (s *Scheduler) apply(fields parse.FieldMap) {
	if len(fields) == 0 {
		return
	}
	outcome := s.acc.Apply(fields)
	if outcome.InfoChanged && s.config.Info != nil {
		if err := s.config.Info.WriteInfo(s.acc.ModemInfo()); err != nil {
			s.log.Warn("writing modem info", "error", err)
		}
	}
	if outcome.SampleReady && s.config.Samples != nil {
		if err := s.config.Samples.WriteSample(s.acc.Sample()); err != nil {
			s.log.Warn("writing sample", "error", err)
		}
	}
}

// sleep waits one tick quantum, returning false if the context ended
// first.
func (s *Scheduler) sleep(ctx context.Context) bool {
	t := time.NewTimer(s.config.Tick)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
