package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	drawille "github.com/chriskim06/drawille-go"
)

// Palette maps channels to line colors.
type Palette struct {
	Lines  [MaxChannels]drawille.Color
	Labels [MaxChannels]lipgloss.Style

	// Mono strips every color escape from the rendered output.
	Mono bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	rangeStyle = lipgloss.NewStyle().Faint(true)
)

// DefaultPalette picks line colors that read on the terminal's background.
func DefaultPalette(mono bool) Palette {
	p := Palette{Mono: mono}
	if lipgloss.HasDarkBackground() {
		p.Lines = [MaxChannels]drawille.Color{drawille.Red, drawille.LightGray, drawille.DimGray}
		p.Labels = [MaxChannels]lipgloss.Style{
			lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
			lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
			lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		}
	} else {
		p.Lines = [MaxChannels]drawille.Color{drawille.Red, drawille.Black, drawille.DimGray}
		p.Labels = [MaxChannels]lipgloss.Style{
			lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
			lipgloss.NewStyle().Foreground(lipgloss.Color("0")),
			lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		}
	}
	return p
}

// Render draws the plot into a width x height block of text: a title line
// with the newest values, the chart, and a line giving the y range. The
// window shown ends at the newest sample.
func (p *SubPlot) Render(width, height int, pal Palette) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	out := p.render(width, height, pal)
	if pal.Mono {
		out = ansi.Strip(out)
	}
	return out
}

func (p *SubPlot) render(width, height int, pal Palette) string {
	latest, ok := p.Latest()
	header := p.header(latest, ok, pal)
	if height == 1 {
		return fit(header, width)
	}
	if !ok {
		return fit(header, width) + "\n" + fit(rangeStyle.Render("waiting for data"), width)
	}

	chartHeight := height - 2
	if chartHeight < 1 {
		return fit(header, width) + "\n" + fit(p.rangeLine(), width)
	}

	series := p.window(width*2, latest.T)
	lo, hi := findMinMax(series)

	var chart string
	if hi-lo < 1e-12 {
		chart = flatChart(width, chartHeight, pal)
	} else {
		canvas := drawille.NewCanvas(width, chartHeight)
		canvas.NumDataPoints = width * 2
		canvas.ShowAxis = false
		canvas.LineColors = pal.Lines[:len(series)]
		canvas.Fill(series)
		chart = strings.TrimRight(canvas.String(), "\n")
	}

	return fit(header, width) + "\n" + chart + "\n" + fit(rangeStyle.Render(fmt.Sprintf("%.3g .. %.3g", lo, hi)), width)
}

func (p *SubPlot) header(latest Sample, ok bool, pal Palette) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title))
	if !ok {
		return b.String()
	}
	for i, label := range p.labels {
		b.WriteString("  ")
		b.WriteString(pal.Labels[i].Render(fmt.Sprintf("%s %+.3f", label, latest.Values[i])))
	}
	return b.String()
}

func (p *SubPlot) rangeLine() string {
	series := make([][]float64, len(p.labels))
	for ch := range series {
		series[ch] = make([]float64, len(p.samples))
		for i, s := range p.samples {
			series[ch][i] = s.Values[ch]
		}
	}
	lo, hi := findMinMax(series)
	return rangeStyle.Render(fmt.Sprintf("%.3g .. %.3g", lo, hi))
}

// window resamples the retained samples onto n evenly spaced instants ending
// at end. Each instant takes the value of the last sample at or before it;
// instants before the first sample take the first sample's value.
func (p *SubPlot) window(n int, end float64) [][]float64 {
	series := make([][]float64, len(p.labels))
	for ch := range series {
		series[ch] = make([]float64, n)
	}
	if n == 0 || len(p.samples) == 0 {
		return series
	}

	start := end - p.retention
	step := p.retention / float64(n)
	j := 0
	for i := 0; i < n; i++ {
		at := start + float64(i+1)*step
		for j+1 < len(p.samples) && p.samples[j+1].T <= at {
			j++
		}
		for ch := range series {
			series[ch][i] = p.samples[j].Values[ch]
		}
	}
	return series
}

// findMinMax returns the value range across every channel.
func findMinMax(series [][]float64) (minVal, maxVal float64) {
	minVal, maxVal = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if math.IsInf(minVal, 1) {
		return 0, 0
	}
	return minVal, maxVal
}

// flatChart draws a constant series as a braille line through the middle row.
// The canvas cannot scale a zero-height range.
func flatChart(width, height int, pal Palette) string {
	const brailleMid = '⠒' // dots 2 and 5

	blank := strings.Repeat(" ", width)
	line := pal.Labels[0].Render(strings.Repeat(string(brailleMid), width))

	rows := make([]string, height)
	for i := range rows {
		rows[i] = blank
	}
	rows[height/2] = line
	return strings.Join(rows, "\n")
}

// fit truncates s to width cells.
func fit(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
