package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"with'quote", "'with'\\''quote'"},
		{"", "''"},
		{"$(command)", "'$(command)'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellQuote(tt.input))
		})
	}
}

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"restart", "restart"},
		{"--no-wait", "--no-wait"},
		{"rg-prod_01", "rg-prod_01"},
		{"", "''"},
		{"[?state=='Enabled'].id", "'[?state=='\\''Enabled'\\''].id'"},
		{"where a > 0", "'where a > 0'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteArg(tt.input))
		})
	}
}

func TestCommandLine(t *testing.T) {
	args := []string{"vm", "restart", "--name", "vm 1", "--no-wait"}
	assert.Equal(t, "az vm restart --name 'vm 1' --no-wait", CommandLine("az", args, 0))

	args = []string{"graph", "query", "-q", "Resources | where type =~ 'x'"}
	assert.Equal(t, "az graph query -q Resources...", CommandLine("az", args, 9))
}
