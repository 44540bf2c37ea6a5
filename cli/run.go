package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/config"
	"github.com/lukejenkins/cwd/gnss"
	"github.com/lukejenkins/cwd/output"
	"github.com/lukejenkins/cwd/parse"
	"github.com/lukejenkins/cwd/schedule"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect telemetry on the tiered polling schedule",
	Long: `Connects to the modem, verifies its identity, runs the one-time
setup and information queries, then polls the fast, medium and slow
command groups at their configured intervals until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		start := time.Now()
		transcript, err := output.NewTranscriptLog(cfg.Logging.Dir, nil)
		if err != nil {
			return err
		}
		defer transcript.Close()

		samples, err := output.NewCSVSink(cfg.Output.CSVDir, cfg.Output.CSVFilename, start)
		if err != nil {
			return err
		}
		defer samples.Close()

		info, err := output.NewJSONSink(cfg.Output.JSONDir, cfg.Output.JSONFilename, start)
		if err != nil {
			return err
		}

		executor, err := newExecutor(ctx, cfg, logger, transcript)
		if err != nil {
			return err
		}

		var location schedule.LocationSource
		if cfg.GPSD.Enabled {
			client := gnss.NewClient(cfg.GPSD.Host, cfg.GPSD.Port, logger)
			defer client.Close()
			location = client
		}

		scheduler, err := schedule.New(schedule.Config{
			Session:  executor,
			Registry: parse.NewRegistry(),
			Groups:   schedule.Groups(cfg.Groups),
			Identity: schedule.Identity{
				Strict:        cfg.Identity.Policy == config.IdentityStrict,
				Manufacturers: cfg.Identity.Manufacturers,
				Models:        cfg.Identity.Models,
			},
			FastInterval:   cfg.Intervals.Fast,
			MediumInterval: cfg.Intervals.Medium,
			SlowInterval:   cfg.Intervals.Slow,
			Samples:        samples,
			Info:           info,
			Location:       location,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		logger.Info("starting collection",
			"port", cfg.Serial.Port,
			"csv", samples.Path(),
			"json", info.Path(),
			"transcript", transcript.Path())
		return scheduler.Run(ctx, runOnce)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run every command group once and exit")
}
