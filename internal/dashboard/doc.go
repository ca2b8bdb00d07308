// Package dashboard implements the live estimator monitor as a Bubble Tea
// program.
//
// Three message sources drive the model: a draw tick that redraws the
// focused node, a scan tick that discovers new estimators on the bus, and
// bus deliveries that feed the plotters. All three are handled on the Bubble
// Tea event loop, so registry and plot state is never shared between
// goroutines.
//
// Keyboard shortcuts:
//   - up/k, down/j: Move focus to the previous/next node
//   - r: Reset the focused estimator
//   - ?: Toggle the full help
//   - q/Ctrl+C: Quit
package dashboard
