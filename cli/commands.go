package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Print the configured command groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, g := range []struct {
			name string
			cmds []string
		}{
			{"setup", cfg.Groups.Setup},
			{"modem_info", cfg.Groups.ModemInfo},
			{"gnss_info", cfg.Groups.GNSSInfo},
			{"network_config", cfg.Groups.NetworkConfig},
			{"fast_loop", cfg.Groups.FastLoop},
			{"medium_loop", cfg.Groups.MediumLoop},
			{"slow_loop", cfg.Groups.SlowLoop},
		} {
			fmt.Printf("%s (%d commands):\n", g.name, len(g.cmds))
			for _, c := range g.cmds {
				fmt.Printf("  %s\n", c)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
