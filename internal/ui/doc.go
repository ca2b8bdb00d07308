// Package ui provides the styled terminal output used by statemon's
// non-dashboard commands: a spinner for blocking steps, status symbols,
// and plain tables.
//
// Colors are ANSI codes so output follows the terminal's palette. Use
// DisableColors for --no-color.
//
//	s := ui.NewSpinner("Connecting to tcp://localhost:1883")
//	s.Start()
//	// ... dial ...
//	s.Success() // or s.Fail() or s.Skip()
package ui
