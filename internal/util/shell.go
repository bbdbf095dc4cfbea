// Package util holds small text helpers shared by the CLI and its backends.
package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
func ShellQuote(s string) string {
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// QuoteArg quotes s only when a POSIX shell would split or expand it.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]{}!#~") {
		return ShellQuote(s)
	}
	return s
}

// CommandLine renders binary and args as a line an operator can paste into
// a shell. Arguments longer than maxArg runes are elided; zero keeps them whole.
func CommandLine(binary string, args []string, maxArg int) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(binary))
	for _, a := range args {
		if maxArg > 0 {
			if r := []rune(a); len(r) > maxArg {
				a = string(r[:maxArg]) + "..."
			}
		}
		parts = append(parts, QuoteArg(a))
	}
	return strings.Join(parts, " ")
}
