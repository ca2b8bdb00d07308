package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Command succeeded
	SymbolFail     = "✗" // Step failed
	SymbolPending  = "○" // Nothing found yet
	SymbolProgress = "◐" // Long-running work started
	SymbolComplete = "●" // Step done
	SymbolSkipped  = "⊘" // Step cancelled
)
