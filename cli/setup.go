package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/parse"
	"github.com/lukejenkins/cwd/schedule"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write the full setup command group to the modem",
	Long: `Sends every command of the configured setup group unconditionally.
Identity verification is always strict here: setup writes persistent
settings, and writing them to the wrong device is not recoverable by a
warning. Use 'configure' for the diff-based variant that skips settings
already in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

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

		applied := 0
		for _, c := range cfg.Groups.Setup {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := executor.Execute(ctx, c)
			if !r.Success {
				logger.Warn("setup command failed", "cmd", c)
				continue
			}
			applied++
		}

		fmt.Printf("Applied %d of %d setup commands\n", applied, len(cfg.Groups.Setup))
		if applied < len(cfg.Groups.Setup) {
			return fmt.Errorf("%d setup commands failed", len(cfg.Groups.Setup)-applied)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
