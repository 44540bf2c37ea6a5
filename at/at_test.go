package at_test

import (
	"slices"
	"testing"

	"github.com/lukejenkins/cwd/at"
)

func TestVerb(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		expected string
	}{
		{
			name:     "Bare command",
			cmd:      "AT+CSQ",
			expected: "AT+CSQ",
		},
		{
			name:     "Read form",
			cmd:      "AT+CREG?",
			expected: "AT+CREG",
		},
		{
			name:     "Write form",
			cmd:      "AT+CMEE=2",
			expected: "AT+CMEE",
		},
		{
			name:     "Parameterised query",
			cmd:      `AT+QGPSCFG="outport"`,
			expected: "AT+QGPSCFG",
		},
		{
			name:     "Leading whitespace",
			cmd:      "  AT+QNWINFO",
			expected: "AT+QNWINFO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.Verb(tt.cmd); got != tt.expected {
				t.Errorf("Verb(%q) = %q, want %q", tt.cmd, got, tt.expected)
			}
		})
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		raw      string
		expected []string
	}{
		{
			name:     "Echo and OK stripped",
			cmd:      "AT+CSQ",
			raw:      "AT+CSQ\r\n+CSQ: 20,3\r\nOK\r\n",
			expected: []string{"+CSQ: 20,3"},
		},
		{
			name:     "No echo",
			cmd:      "AT+CREG?",
			raw:      "+CREG: 0,1\r\nOK\r\n",
			expected: []string{"+CREG: 0,1"},
		},
		{
			name:     "Multi-line info",
			cmd:      "ATI",
			raw:      "ATI\r\nQuectel\r\nEG25\r\nRevision: EG25GGBR07A08M2G\r\nOK\r\n",
			expected: []string{"Quectel", "EG25", "Revision: EG25GGBR07A08M2G"},
		},
		{
			name:     "Error response kept",
			cmd:      "AT+CPIN?",
			raw:      "AT+CPIN?\r\n+CME ERROR: 10\r\n",
			expected: []string{"+CME ERROR: 10"},
		},
		{
			name:     "Blank lines dropped",
			cmd:      "AT",
			raw:      "\r\n\r\nOK\r\n\r\n",
			expected: nil,
		},
		{
			name:     "OK only in middle retained",
			cmd:      "AT+QMBNCFG=\"List\"",
			raw:      "+QMBNCFG: \"List\",0,1,1,\"ROW_Generic_3GPP\",0x0501081F,202404011\r\nOK\r\n",
			expected: []string{`+QMBNCFG: "List",0,1,1,"ROW_Generic_3GPP",0x0501081F,202404011`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := at.Lines(tt.cmd, tt.raw)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Lines() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsError(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"Bare ERROR", "AT+BOGUS\r\nERROR\r\n", true},
		{"CME error", "+CME ERROR: SIM not inserted\r\n", true},
		{"CMS error", "+CMS ERROR: 500\r\n", true},
		{"Clean response", "+CSQ: 20,3\r\nOK\r\n", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at.IsError(tt.raw); got != tt.expected {
				t.Errorf("IsError(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestTrimPrefix(t *testing.T) {
	if got := at.TrimPrefix("+CSQ: 20,3", "+CSQ:"); got != "20,3" {
		t.Errorf("TrimPrefix() = %q, want %q", got, "20,3")
	}
	if got := at.TrimPrefix("no prefix here", "+CSQ:"); got != "no prefix here" {
		t.Errorf("TrimPrefix() = %q, want line unchanged", got)
	}
}
