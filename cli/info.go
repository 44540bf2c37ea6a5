package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/parse"
)

// infoIdentityFields is the display order of the one-time identity
// facts.
var infoIdentityFields = []string{
	parse.FieldManufacturer,
	parse.FieldModel,
	parse.FieldFirmware,
	parse.FieldSerialNumber,
	parse.FieldIMSI,
	parse.FieldICCID,
	parse.FieldSIMStatus,
	parse.FieldCarrierProfile,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a one-shot report of modem identity and network state",
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

		registry := parse.NewRegistry()
		acc := parse.NewAccumulator(nil)
		for _, group := range [][]string{
			cfg.Groups.ModemInfo,
			cfg.Groups.FastLoop,
			cfg.Groups.MediumLoop,
		} {
			for _, c := range group {
				if err := ctx.Err(); err != nil {
					return err
				}
				if r := executor.Execute(ctx, c); r.Success {
					acc.Apply(registry.Decode(c, r.Raw))
				}
			}
		}

		fmt.Println("Modem:")
		printFields(acc.ModemInfo(), infoIdentityFields)
		fmt.Println("Network:")
		printFields(acc.Sample(), parse.Columns[1:]) // timestamp is noise here
		return nil
	},
}

func printFields(fields parse.FieldMap, order []string) {
	for _, name := range order {
		if v, ok := fields[name]; ok {
			fmt.Printf("  %-20s %s\n", name, v.Text())
		}
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
