package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukejenkins/cwd/at"
)

// testChecks is the fixed diagnostic sequence. Deliberately read-only:
// the test command must be safe to run against any modem.
var testChecks = []struct {
	cmd  string
	desc string
}{
	{"AT", "attention"},
	{"ATI", "product identification"},
	{"AT+CGMI", "manufacturer"},
	{"AT+CGMM", "model"},
	{"AT+CGMR", "firmware revision"},
	{"AT+CGSN", "serial number"},
	{"AT+CPIN?", "SIM status"},
	{"AT+CSQ", "signal quality"},
	{"AT+CREG?", "network registration"},
	{"AT+COPS?", "operator selection"},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run a read-only connectivity check against the modem",
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

		passed := 0
		for _, check := range testChecks {
			r := executor.Execute(ctx, check.cmd)
			status := "FAIL"
			detail := ""
			if r.Success {
				status = "ok"
				passed++
				if lines := at.Lines(check.cmd, r.Raw); len(lines) > 0 {
					detail = strings.Join(lines, " / ")
				}
			}
			fmt.Printf("%-10s %-24s %-5s %s\n", check.cmd, check.desc, status, detail)
		}

		if passed == len(testChecks) {
			fmt.Printf("All %d checks passed\n", passed)
			return nil
		}
		fmt.Printf("%d of %d checks passed\n", passed, len(testChecks))
		return fmt.Errorf("%d checks failed", len(testChecks)-passed)
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
