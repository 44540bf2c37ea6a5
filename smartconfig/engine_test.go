package smartconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/lukejenkins/cwd/at"
	"github.com/lukejenkins/cwd/modem"
	"github.com/lukejenkins/cwd/smartconfig"
)

// scriptRunner answers each command from a canned response table.
// Unlisted commands succeed with a bare OK.
type scriptRunner struct {
	responses map[string]string
	calls     []string
}

func (r *scriptRunner) Execute(ctx context.Context, cmd string) modem.CommandResult {
	r.calls = append(r.calls, cmd)
	raw, ok := r.responses[cmd]
	if !ok {
		raw = "OK\r\n"
	}
	return modem.CommandResult{Success: !at.IsError(raw), Raw: raw, Attempts: 1}
}

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestApplyBasic(t *testing.T) {
	t.Run("Matching value is skipped, no write issued", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			"AT+CMEE?": "+CMEE: 2\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Basic: smartconfig.Basic{ErrorReporting: intPtr(2)},
		})
		if stats.Checked != 1 || stats.Skipped != 1 {
			t.Errorf("stats = %+v, want 1 checked / 1 skipped", stats)
		}
		if slices.Contains(runner.calls, "AT+CMEE=2") {
			t.Errorf("write issued for a matching value: %v", runner.calls)
		}
	})

	t.Run("Differing value is written", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			"AT+CMEE?": "+CMEE: 0\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Basic: smartconfig.Basic{ErrorReporting: intPtr(2)},
		})
		if stats.Changed != 1 {
			t.Errorf("stats = %+v, want 1 changed", stats)
		}
		if !slices.Contains(runner.calls, "AT+CMEE=2") {
			t.Errorf("write not issued: %v", runner.calls)
		}
	})

	t.Run("Unparsable current value proceeds to write", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			"AT+CTZU?": "nothing useful here\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Basic: smartconfig.Basic{TimeZoneUpdate: intPtr(3)},
		})
		if stats.Changed != 1 {
			t.Errorf("stats = %+v, want 1 changed", stats)
		}
		if !slices.Contains(runner.calls, "AT+CTZU=3") {
			t.Errorf("unreadable current value must still be written: %v", runner.calls)
		}
	})

	t.Run("Query failure counts as failed, no write", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			"AT+CMEE?": "ERROR\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Basic: smartconfig.Basic{ErrorReporting: intPtr(2)},
		})
		if stats.Failed != 1 {
			t.Errorf("stats = %+v, want 1 failed", stats)
		}
		if slices.Contains(runner.calls, "AT+CMEE=2") {
			t.Errorf("write issued after failed query: %v", runner.calls)
		}
	})

	t.Run("Absent settings are never touched", func(t *testing.T) {
		runner := &scriptRunner{}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{})
		if stats.Checked != 0 {
			t.Errorf("stats = %+v, want nothing checked", stats)
		}
		if len(runner.calls) != 0 {
			t.Errorf("commands issued for an empty document: %v", runner.calls)
		}
	})
}

func TestApplyNetwork(t *testing.T) {
	t.Run("Forbidden PLMN cleared only when populated", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QFPLMNCFG="list"`: "+QFPLMNCFG: \"46000\"\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Network: smartconfig.Network{ClearForbiddenPLMN: boolPtr(true)},
		})
		if stats.Changed != 1 {
			t.Errorf("stats = %+v, want 1 changed", stats)
		}
		if !slices.Contains(runner.calls, `AT+QFPLMNCFG="Delete","all"`) {
			t.Errorf("clear not issued: %v", runner.calls)
		}
	})

	t.Run("Empty forbidden PLMN list is skipped", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QFPLMNCFG="list"`: "OK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Network: smartconfig.Network{ClearForbiddenPLMN: boolPtr(true)},
		})
		if stats.Skipped != 1 {
			t.Errorf("stats = %+v, want 1 skipped", stats)
		}
		if slices.Contains(runner.calls, `AT+QFPLMNCFG="Delete","all"`) {
			t.Errorf("clear issued for an empty list: %v", runner.calls)
		}
	})

	t.Run("Scan options compared numerically", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QOPSCFG="displayrssi"`: "+QOPSCFG: \"displayrssi\",1\r\nOK\r\n",
			`AT+QOPSCFG="displaybw"`:   "+QOPSCFG: \"displaybw\",0\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			Network: smartconfig.Network{
				DisplayRSSIInScan:      intPtr(1),
				DisplayBandwidthInScan: intPtr(1),
			},
		})
		if stats.Skipped != 1 || stats.Changed != 1 {
			t.Errorf("stats = %+v, want 1 skipped / 1 changed", stats)
		}
		if !slices.Contains(runner.calls, `AT+QOPSCFG="displaybw",1`) {
			t.Errorf("bandwidth write not issued: %v", runner.calls)
		}
	})
}

func TestApplyGNSS(t *testing.T) {
	t.Run("Batch is bracketed by power off and unconditional power on", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QGPSCFG="fixfreq"`:    "+QGPSCFG: \"fixfreq\",1\r\nOK\r\n",
			`AT+QGPSCFG="fixfreq",10`: "ERROR\r\n", // the write fails
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			GNSS: smartconfig.GNSS{
				Enabled:      boolPtr(true),
				FixFrequency: intPtr(10),
			},
		})
		if stats.Failed != 1 {
			t.Errorf("stats = %+v, want 1 failed", stats)
		}
		if runner.calls[0] != "AT+QGPSEND" {
			t.Errorf("first command = %q, want AT+QGPSEND", runner.calls[0])
		}
		if last := runner.calls[len(runner.calls)-1]; last != "AT+QGPS=1" {
			t.Errorf("last command = %q, positioning must be powered back on", last)
		}
	})

	t.Run("Disabled group issues no commands", func(t *testing.T) {
		runner := &scriptRunner{}
		e := smartconfig.New(runner, nil)

		e.Apply(context.Background(), &smartconfig.Desired{
			GNSS: smartconfig.GNSS{FixFrequency: intPtr(10)},
		})
		if len(runner.calls) != 0 {
			t.Errorf("commands issued for a disabled gnss group: %v", runner.calls)
		}
	})

	t.Run("String setting handles quoted report", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QGPSCFG="outport"`: "+QGPSCFG: \"outport\",\"usbnmea\"\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			GNSS: smartconfig.GNSS{
				Enabled:    boolPtr(true),
				OutputPort: strPtr("usbnmea"),
			},
		})
		if stats.Skipped != 1 {
			t.Errorf("stats = %+v, want 1 skipped", stats)
		}
		if slices.Contains(runner.calls, `AT+QGPSCFG="outport","usbnmea"`) {
			t.Errorf("write issued for a matching value: %v", runner.calls)
		}
	})

	t.Run("Raw data value compared verbatim", func(t *testing.T) {
		runner := &scriptRunner{responses: map[string]string{
			`AT+QGPSCFG="gnssrawdata"`: "+QGPSCFG: \"gnssrawdata\",31,0\r\nOK\r\n",
		}}
		e := smartconfig.New(runner, nil)

		stats := e.Apply(context.Background(), &smartconfig.Desired{
			GNSS: smartconfig.GNSS{
				Enabled:       boolPtr(true),
				RawDataConfig: strPtr("31,0"),
			},
		})
		if stats.Skipped != 1 {
			t.Errorf("stats = %+v, want 1 skipped", stats)
		}
	})
}

func TestEfficiency(t *testing.T) {
	s := smartconfig.Stats{Checked: 4, Skipped: 2, Changed: 1, Failed: 1}
	if got := s.Efficiency(); got != 0.5 {
		t.Errorf("efficiency = %v, want 0.5", got)
	}
	if got := (smartconfig.Stats{}).Efficiency(); got != 0 {
		t.Errorf("empty efficiency = %v, want 0", got)
	}
}

func TestLoadDesired(t *testing.T) {
	t.Run("Absent settings stay unmanaged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "modem_config.yaml")
		doc := []byte("basic:\n  error_reporting: 2\ngnss:\n  enabled: true\n  fix_frequency: 10\n")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			t.Fatal(err)
		}

		d, err := smartconfig.LoadDesired(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Basic.ErrorReporting == nil || *d.Basic.ErrorReporting != 2 {
			t.Errorf("error_reporting = %v", d.Basic.ErrorReporting)
		}
		if d.Basic.TimeZoneUpdate != nil {
			t.Error("absent time_zone_update must stay nil")
		}
		if d.GNSS.Enabled == nil || !*d.GNSS.Enabled {
			t.Error("gnss.enabled not loaded")
		}
		if d.GNSS.OutputPort != nil {
			t.Error("absent output_port must stay nil")
		}
	})

	t.Run("Missing document is an error", func(t *testing.T) {
		if _, err := smartconfig.LoadDesired(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing document")
		}
	})
}
