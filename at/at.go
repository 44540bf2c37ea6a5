// Package at holds the vocabulary of the AT command dialect: terminal
// control sequences, final result tokens, and helpers for cleaning raw
// responses into the info lines a decoder cares about.
package at

import "strings"

const (
	// Terminal Control
	CR   = "\r"
	CRLF = "\r\n"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"
)

// Bootstrap commands issued before any other command is trusted.
const (
	CmdProbe         = "AT"        // liveness probe
	CmdEchoOff       = "ATE0"      // disable command echo
	CmdVerboseErrors = "AT+CMEE=2" // verbose error reporting
)

// IsError reports whether a raw response carries a device-level error
// token. The check is deliberately generic: a bare ERROR, a CME error and
// a CMS error are all treated the same way by the executor's retry loop.
func IsError(raw string) bool {
	return strings.Contains(raw, ERROR)
}

// Verb returns the canonical verb of a command line: the part before any
// '=' or '?'. It identifies the command family for decoder dispatch, e.g.
// AT+QGPSCFG="outport" and AT+QGPSCFG="nmeasrc" share the verb AT+QGPSCFG.
func Verb(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if idx := strings.IndexAny(cmd, "=?"); idx != -1 {
		return cmd[:idx]
	}
	return cmd
}

// Lines splits a raw response into trimmed, non-empty lines, dropping a
// leading echo of the sent command and a trailing bare OK. The remaining
// lines are what a decoder operates on.
func Lines(cmd, raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 && lines[0] == strings.TrimSpace(cmd) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && lines[n-1] == OK {
		lines = lines[:n-1]
	}
	return lines
}

// TrimPrefix removes an info prefix such as "+CSQ:" and any following
// space from a line. The line is returned unchanged if the prefix is
// absent.
func TrimPrefix(line, prefix string) string {
	return strings.TrimLeft(strings.TrimPrefix(line, prefix), " ")
}
