package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/modem"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports visible to the system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := modem.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
