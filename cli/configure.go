package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/parse"
	"github.com/lukejenkins/cwd/schedule"
	"github.com/lukejenkins/cwd/smartconfig"
)

var desiredFile string

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Apply the desired configuration, writing only what differs",
	Long: `Loads the desired-configuration document and reconciles the modem
against it: every managed setting is queried first and written only when
the current value differs. Settings absent from the document are never
touched. Identity verification is always strict here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		path := cfg.SmartConfigFile
		if desiredFile != "" {
			path = desiredFile
		}
		desired, err := smartconfig.LoadDesired(path)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		executor, err := newExecutor(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer executor.Close()

		if err := executor.Init(ctx); err != nil {
			return err
		}

		scheduler, err := schedule.New(schedule.Config{
			Session:  executor,
			Registry: parse.NewRegistry(),
			Identity: schedule.Identity{
				Strict:        true,
				Manufacturers: cfg.Identity.Manufacturers,
				Models:        cfg.Identity.Models,
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}
		if err := scheduler.VerifyIdentity(ctx); err != nil {
			return err
		}

		stats := smartconfig.New(executor, logger).Apply(ctx, desired)
		fmt.Printf("Checked %d settings: %d changed, %d already correct, %d failed (%.0f%% skipped)\n",
			stats.Checked, stats.Changed, stats.Skipped, stats.Failed, stats.Efficiency()*100)
		if stats.Failed > 0 {
			return fmt.Errorf("%d settings failed to apply", stats.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringVarP(&desiredFile, "file", "f", "", "desired configuration document (overrides config)")
}
