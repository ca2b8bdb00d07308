// Package plot holds the rolling time-series sub-plots shown in the dashboard
// grid and renders them as braille line charts.
//
// Each SubPlot keeps an ordered window of samples (a timestamp plus up to
// three channel values). Samples older than the retention window, measured
// back from the newest timestamp, are discarded on every append.
package plot
