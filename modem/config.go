package modem

import (
	"log/slog"
	"time"
)

// Config contains the executor configuration settings.
type Config struct {
	// Dialer opens the transport. Required.
	Dialer Dialer
	// SettleDelay is the fixed wait after sending a command before the
	// response drain begins, and the back-off between retry attempts.
	SettleDelay time.Duration
	// MaxRetries is the default retry bound for Execute. An execution
	// makes at most MaxRetries+1 transmission attempts.
	MaxRetries int
	// MaxIdleWindows bounds how many consecutive empty read windows the
	// drain tolerates before declaring the modem silent.
	MaxIdleWindows int
	// Transcript receives every sent command and raw response verbatim.
	// Optional; nil disables transcript recording.
	Transcript Transcript
	// Logger for structured executor events. Optional.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.SettleDelay == 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxIdleWindows == 0 {
		c.MaxIdleWindows = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ConfigBuilder assembles an executor Config fluently.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder pre-loaded with nothing; defaults are
// applied by Build.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the transport dialer.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

// WithSettleDelay sets the post-send settle delay and retry back-off.
func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

// WithMaxRetries sets the default retry bound.
func (b *ConfigBuilder) WithMaxRetries(n int) *ConfigBuilder {
	b.config.MaxRetries = n
	return b
}

// WithMaxIdleWindows sets the silence bound for the response drain.
func (b *ConfigBuilder) WithMaxIdleWindows(n int) *ConfigBuilder {
	b.config.MaxIdleWindows = n
	return b
}

// WithTranscript sets the verbatim request/response sink.
func (b *ConfigBuilder) WithTranscript(t Transcript) *ConfigBuilder {
	b.config.Transcript = t
	return b
}

// WithLogger sets the structured logger.
func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and applies defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	cfg := b.config
	cfg.setDefaults()
	return cfg, nil
}
