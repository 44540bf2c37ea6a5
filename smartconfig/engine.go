package smartconfig

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lukejenkins/cwd/modem"
)

// Stats tallies setting outcomes for the closing efficiency report.
// Every examined setting increments Checked and exactly one of the other
// three counters.
type Stats struct {
	Checked int
	Changed int
	Skipped int
	Failed  int
}

// Efficiency is the share of settings that needed no write.
func (s Stats) Efficiency() float64 {
	if s.Checked == 0 {
		return 0
	}
	return float64(s.Skipped) / float64(s.Checked)
}

var (
	cmeePattern = regexp.MustCompile(`\+CMEE:\s*(\d+)`)
	ctzuPattern = regexp.MustCompile(`\+CTZU:\s*(\d+)`)
)

// Engine drives the Query → Parse → Compare → Set state machine per
// managed setting.
type Engine struct {
	runner modem.Runner
	log    *slog.Logger
	stats  Stats
}

// New returns an engine executing through runner. A nil logger uses the
// default logger.
func New(runner modem.Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		runner: runner,
		log:    logger.With("component", "smartconfig"),
	}
}

// Apply walks the desired document group by group and returns the
// outcome tally. Individual setting failures are counted, not fatal.
func (e *Engine) Apply(ctx context.Context, desired *Desired) Stats {
	e.stats = Stats{}
	e.log.Info("starting smart configuration")

	e.applyBasic(ctx, desired.Basic)
	e.applyNetwork(ctx, desired.Network)
	e.applyGNSS(ctx, desired.GNSS)

	e.log.Info("smart configuration finished",
		"checked", e.stats.Checked,
		"changed", e.stats.Changed,
		"skipped", e.stats.Skipped,
		"failed", e.stats.Failed,
		"efficiency", fmt.Sprintf("%.1f%%", e.stats.Efficiency()*100))
	return e.stats
}

func (e *Engine) applyBasic(ctx context.Context, basic Basic) {
	if basic.ErrorReporting != nil {
		e.applyNumeric(ctx, "AT+CMEE", cmeePattern, *basic.ErrorReporting)
	}
	if basic.TimeZoneUpdate != nil {
		e.applyNumeric(ctx, "AT+CTZU", ctzuPattern, *basic.TimeZoneUpdate)
	}
}

func (e *Engine) applyNetwork(ctx context.Context, network Network) {
	if network.ClearForbiddenPLMN != nil && *network.ClearForbiddenPLMN {
		e.clearForbiddenPLMN(ctx)
	}
	if network.DisplayRSSIInScan != nil {
		e.applyScanOption(ctx, "displayrssi", *network.DisplayRSSIInScan)
	}
	if network.DisplayBandwidthInScan != nil {
		e.applyScanOption(ctx, "displaybw", *network.DisplayBandwidthInScan)
	}
}

// applyGNSS powers the positioning subsystem off, applies each managed
// parameter, and powers it back on unconditionally: leaving positioning
// off would be worse than a partially-applied configuration.
func (e *Engine) applyGNSS(ctx context.Context, gnss GNSS) {
	if gnss.Enabled == nil || !*gnss.Enabled {
		e.log.Info("gnss not enabled in desired configuration, skipping group")
		return
	}

	if r := e.runner.Execute(ctx, "AT+QGPSEND"); !r.Success {
		e.log.Warn("failed to power off gnss before configuration")
	}
	defer func() {
		if r := e.runner.Execute(ctx, "AT+QGPS=1"); !r.Success {
			e.log.Error("failed to power gnss back on")
			return
		}
		e.log.Info("gnss powered on")
	}()

	if gnss.OutputPort != nil {
		e.applyGPSString(ctx, "outport", *gnss.OutputPort)
	}
	for _, s := range []struct {
		param   string
		desired *int
	}{
		{"nmeasrc", gnss.NMEASource},
		{"gpsnmeatype", gnss.GPSNMEAType},
		{"glonassnmeatype", gnss.GlonassNMEAType},
		{"galileonmeatype", gnss.GalileoNMEAType},
		{"beidounmeatype", gnss.BeidouNMEAType},
		{"gsvextnmeatype", gnss.GSVExtendedNMEA},
		{"gnssconfig", gnss.GNSSConfig},
		{"autogps", gnss.AutoGPS},
		{"agpsposmode", gnss.AGPSPositionMode},
		{"fixfreq", gnss.FixFrequency},
		{"1pps", gnss.OnePPS},
	} {
		if s.desired != nil {
			e.applyGPSInt(ctx, s.param, *s.desired)
		}
	}
	if gnss.RawDataConfig != nil {
		e.applyGPSRawData(ctx, *gnss.RawDataConfig)
	}
}

// applyNumeric handles the plain read/write commands: query cmd?, parse
// the single numeric group, write cmd=<v> when it differs.
func (e *Engine) applyNumeric(ctx context.Context, cmd string, pattern *regexp.Regexp, desired int) {
	e.stats.Checked++

	r := e.runner.Execute(ctx, cmd+"?")
	if !r.Success {
		e.log.Error("failed to query setting", "cmd", cmd)
		e.stats.Failed++
		return
	}

	current, known := matchInt(pattern, r.Raw)
	if known && current == desired {
		e.log.Info("setting already correct", "cmd", cmd, "value", desired)
		e.stats.Skipped++
		return
	}

	// An unreadable current value is not proof of correctness; write.
	e.set(ctx, cmd, fmt.Sprintf("%s=%d", cmd, desired))
}

// applyScanOption handles the QOPSCFG display toggles.
func (e *Engine) applyScanOption(ctx context.Context, param string, desired int) {
	e.stats.Checked++

	query := fmt.Sprintf(`AT+QOPSCFG="%s"`, param)
	r := e.runner.Execute(ctx, query)
	if !r.Success {
		e.log.Error("failed to query scan option", "param", param)
		e.stats.Failed++
		return
	}

	pattern := regexp.MustCompile(`\+QOPSCFG:\s*"` + regexp.QuoteMeta(param) + `",\s*(\d+)`)
	current, known := matchInt(pattern, r.Raw)
	if known && current == desired {
		e.log.Info("scan option already correct", "param", param, "value", desired)
		e.stats.Skipped++
		return
	}

	e.set(ctx, param, fmt.Sprintf(`AT+QOPSCFG="%s",%d`, param, desired))
}

func (e *Engine) applyGPSInt(ctx context.Context, param string, desired int) {
	e.stats.Checked++

	r := e.runner.Execute(ctx, fmt.Sprintf(`AT+QGPSCFG="%s"`, param))
	if !r.Success {
		e.log.Error("failed to query gnss setting", "param", param)
		e.stats.Failed++
		return
	}

	pattern := regexp.MustCompile(`\+QGPSCFG:\s*"` + regexp.QuoteMeta(param) + `",\s*(\d+)`)
	current, known := matchInt(pattern, r.Raw)
	if known && current == desired {
		e.log.Info("gnss setting already correct", "param", param, "value", desired)
		e.stats.Skipped++
		return
	}

	e.set(ctx, param, fmt.Sprintf(`AT+QGPSCFG="%s",%d`, param, desired))
}

func (e *Engine) applyGPSString(ctx context.Context, param, desired string) {
	e.stats.Checked++

	r := e.runner.Execute(ctx, fmt.Sprintf(`AT+QGPSCFG="%s"`, param))
	if !r.Success {
		e.log.Error("failed to query gnss setting", "param", param)
		e.stats.Failed++
		return
	}

	// The reported value may or may not be quoted.
	pattern := regexp.MustCompile(`\+QGPSCFG:\s*"` + regexp.QuoteMeta(param) + `",\s*(?:"([^"]*)"|([^,\s\r\n]+))`)
	var current string
	known := false
	if m := pattern.FindStringSubmatch(r.Raw); m != nil {
		known = true
		current = m[1]
		if current == "" {
			current = m[2]
		}
	}
	if known && current == desired {
		e.log.Info("gnss setting already correct", "param", param, "value", desired)
		e.stats.Skipped++
		return
	}

	e.set(ctx, param, fmt.Sprintf(`AT+QGPSCFG="%s","%s"`, param, desired))
}

// applyGPSRawData compares the multi-parameter gnssrawdata value as the
// raw remainder of the report line.
func (e *Engine) applyGPSRawData(ctx context.Context, desired string) {
	e.stats.Checked++

	r := e.runner.Execute(ctx, `AT+QGPSCFG="gnssrawdata"`)
	if !r.Success {
		e.log.Error("failed to query gnss raw data setting")
		e.stats.Failed++
		return
	}

	pattern := regexp.MustCompile(`\+QGPSCFG:\s*"gnssrawdata",\s*(.+)`)
	var current string
	known := false
	if m := pattern.FindStringSubmatch(r.Raw); m != nil {
		known = true
		current, _, _ = strings.Cut(strings.TrimSpace(m[1]), "\n")
		current = strings.TrimSpace(current)
	}
	if known && current == desired {
		e.log.Info("gnss raw data setting already correct", "value", desired)
		e.stats.Skipped++
		return
	}

	e.set(ctx, "gnssrawdata", fmt.Sprintf(`AT+QGPSCFG="gnssrawdata",%s`, desired))
}

// clearForbiddenPLMN clears the forbidden-PLMN list only when the list
// query shows entries.
func (e *Engine) clearForbiddenPLMN(ctx context.Context) {
	e.stats.Checked++

	r := e.runner.Execute(ctx, `AT+QFPLMNCFG="list"`)
	if !r.Success {
		e.log.Error("failed to query forbidden plmn list")
		e.stats.Failed++
		return
	}
	if !strings.Contains(r.Raw, "+QFPLMNCFG:") {
		e.log.Info("forbidden plmn list already empty")
		e.stats.Skipped++
		return
	}

	e.set(ctx, "forbidden plmn", `AT+QFPLMNCFG="Delete","all"`)
}

// set issues the write command and records the outcome. A failed write
// is not retried here; the executor owns the retry bound.
func (e *Engine) set(ctx context.Context, name, cmd string) {
	r := e.runner.Execute(ctx, cmd)
	if !r.Success {
		e.log.Error("failed to apply setting", "setting", name, "cmd", cmd)
		e.stats.Failed++
		return
	}
	e.log.Info("setting changed", "setting", name, "cmd", cmd)
	e.stats.Changed++
}

func matchInt(pattern *regexp.Regexp, raw string) (int, bool) {
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
