package plot

import (
	"sort"
	"time"
)

// Grid dimensions shared by every node layout. Column 0 holds the sidebar.
const (
	GridCols      = 4
	GridRows      = 2
	SidebarColumn = 0
)

// MaxChannels is the most values one sample can carry.
const MaxChannels = 3

// Sample is one timestamped point. Only the first Channels() values are used.
type Sample struct {
	T      float64
	Values [MaxChannels]float64
}

// SubPlot is a titled rolling plot bound to one cell of the layout grid.
type SubPlot struct {
	Title string
	Cell  int

	labels    []string
	retention float64
	samples   []Sample
}

// New creates a sub-plot. labels name the channels, e.g. "x", "y", "z"; at
// most MaxChannels are used.
func New(title string, cell int, retention time.Duration, labels ...string) *SubPlot {
	if len(labels) > MaxChannels {
		labels = labels[:MaxChannels]
	}
	return &SubPlot{
		Title:     title,
		Cell:      cell,
		labels:    labels,
		retention: retention.Seconds(),
	}
}

// Channels returns how many values each sample carries.
func (p *SubPlot) Channels() int { return len(p.labels) }

// Labels returns the channel names.
func (p *SubPlot) Labels() []string { return p.labels }

// Retention returns the window length in seconds.
func (p *SubPlot) Retention() float64 { return p.retention }

// Append adds a sample at time t. A timestamp older than the newest sample is
// clamped to it so the series stays ordered. Samples older than
// t - retention are dropped afterwards.
func (p *SubPlot) Append(t float64, values ...float64) {
	if n := len(p.samples); n > 0 && t < p.samples[n-1].T {
		t = p.samples[n-1].T
	}

	s := Sample{T: t}
	copy(s.Values[:len(p.labels)], values)
	p.samples = append(p.samples, s)

	p.dropBefore(t - p.retention)
}

// Trim drops samples older than now - retention.
func (p *SubPlot) Trim(now float64) {
	p.dropBefore(now - p.retention)
}

func (p *SubPlot) dropBefore(cut float64) {
	i := sort.Search(len(p.samples), func(i int) bool {
		return p.samples[i].T >= cut
	})
	if i == 0 {
		return
	}
	n := copy(p.samples, p.samples[i:])
	p.samples = p.samples[:n]
}

// Samples returns a copy of the retained samples, oldest first.
func (p *SubPlot) Samples() []Sample {
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Len returns the number of retained samples.
func (p *SubPlot) Len() int { return len(p.samples) }

// Latest returns the newest sample.
func (p *SubPlot) Latest() (Sample, bool) {
	if len(p.samples) == 0 {
		return Sample{}, false
	}
	return p.samples[len(p.samples)-1], true
}

// Reset discards all samples.
func (p *SubPlot) Reset() {
	p.samples = p.samples[:0]
}
