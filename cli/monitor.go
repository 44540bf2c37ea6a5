package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/parse"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Continuously display signal and network state",
	Long: `Polls signal quality and serving-network information on a short
interval and prints one line per poll. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		executor, err := newExecutor(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer executor.Close()

		if err := executor.Init(ctx); err != nil {
			return err
		}

		registry := parse.NewRegistry()
		fmt.Printf("%-20s %8s %5s %-10s %-18s %s\n",
			"time", "rssi", "ber", "tech", "operator", "band")

		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()
		for {
			fields := parse.FieldMap{}
			for _, c := range []string{"AT+CSQ", "AT+QNWINFO"} {
				if r := executor.Execute(ctx, c); r.Success {
					fields.Merge(registry.Decode(c, r.Raw))
				}
			}
			fmt.Printf("%-20s %8s %5s %-10s %-18s %s\n",
				time.Now().Format("2006-01-02 15:04:05"),
				cell(fields, parse.FieldRSSI),
				cell(fields, parse.FieldBER),
				cell(fields, parse.FieldTechnology),
				cell(fields, parse.FieldOperator),
				cell(fields, parse.FieldBand))

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

// cell renders one field for columnar display, with a dash for absent
// values.
func cell(fields parse.FieldMap, name string) string {
	v, ok := fields[name]
	if !ok {
		return "-"
	}
	return v.Text()
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "poll interval")
}
