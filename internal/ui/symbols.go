package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Check passed, command issued
	SymbolFail     = "✗" // Check or query failed
	SymbolWarning  = "!" // Degraded but usable
	SymbolPending  = "○" // Not yet started
	SymbolProgress = "◐" // In progress
	SymbolComplete = "●" // Done
	SymbolNew      = "★" // New since last refresh
)
