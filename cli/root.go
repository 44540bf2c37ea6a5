// Package cli defines the command-line surface. Each subcommand loads
// the configuration, applies flag overrides, and drives the packages
// that do the actual work.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/config"
	"github.com/lukejenkins/cwd/modem"
	"github.com/lukejenkins/cwd/output"
)

var (
	cfgFile          string
	portOverride     string
	baudOverride     int
	logLevelOverride string

	rootCmd = &cobra.Command{
		Use:   "cwd",
		Short: "Cellular war driver: AT-command telemetry collector",
		Long: `cwd drives a cellular modem over its serial AT-command interface,
polls signal, registration, cell and positioning data on a tiered
schedule, and writes the results to timestamped CSV and JSON files.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&portOverride, "port", "", "serial port (overrides config)")
	rootCmd.PersistentFlags().IntVar(&baudOverride, "baudrate", 0, "baud rate (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig layers the flag overrides on top of the loaded
// configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if portOverride != "" {
		cfg.Serial.Port = portOverride
	}
	if baudOverride > 0 {
		cfg.Serial.BaudRate = baudOverride
	}
	if logLevelOverride != "" {
		cfg.Logging.Level = logLevelOverride
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newExecutor dials the modem and builds the command executor. The
// transcript is optional; when given it receives the raw traffic.
func newExecutor(ctx context.Context, cfg *config.Config, logger *slog.Logger, transcript *output.TranscriptLog) (*modem.Executor, error) {
	builder := modem.NewConfigBuilder().
		WithDialer(modem.SerialDialer{
			PortName:    cfg.Serial.Port,
			BaudRate:    cfg.Serial.BaudRate,
			ReadTimeout: cfg.Serial.ReadTimeout,
		}).
		WithSettleDelay(cfg.Execution.SettleDelay).
		WithMaxRetries(cfg.Execution.Retries).
		WithLogger(logger)
	if transcript != nil {
		builder = builder.WithTranscript(transcript)
	}
	modemConfig, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return modem.New(ctx, modemConfig)
}
