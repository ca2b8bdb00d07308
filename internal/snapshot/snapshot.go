// Package snapshot renders a node's sub-plots to a PNG image laid out on the
// same grid as the dashboard.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/plot"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Default cell size in pixels.
const (
	DefaultCellWidth  = 320
	DefaultCellHeight = 200
)

const (
	margin     = 6
	lineHeight = 13 // basicfont.Face7x13
)

var (
	background = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
	foreground = color.RGBA{0xcd, 0xd6, 0xf4, 0xff}
	muted      = color.RGBA{0x6c, 0x70, 0x86, 0xff}
	accent     = color.RGBA{0xf9, 0xe2, 0xaf, 0xff}

	// ChannelColors are the line colors for channels x, y, z.
	ChannelColors = [plot.MaxChannels]color.RGBA{
		{0xf3, 0x8b, 0xa8, 0xff},
		{0xa6, 0xe3, 0xa1, 0xff},
		{0x89, 0xb4, 0xfa, 0xff},
	}
)

// Options sets the pixel size of one grid cell. Zero values use the defaults.
type Options struct {
	CellWidth  int
	CellHeight int
}

func (o Options) withDefaults() Options {
	if o.CellWidth <= 0 {
		o.CellWidth = DefaultCellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = DefaultCellHeight
	}
	return o
}

// Render draws every sub-plot of n into its grid cell, with the node name in
// the sidebar column.
func Render(n *nodes.Node, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, plot.GridCols*opts.CellWidth, plot.GridRows*opts.CellHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	sidebar := image.Rect(0, 0, opts.CellWidth, img.Bounds().Dy())
	drawText(img, sidebar.Min.X+margin, sidebar.Min.Y+margin+lineHeight, foreground, "State Monitor")
	drawText(img, sidebar.Min.X+margin, sidebar.Min.Y+margin+3*lineHeight, accent, n.Name())
	drawText(img, sidebar.Min.X+margin, sidebar.Min.Y+margin+4*lineHeight, muted, n.Variant().String())

	for _, sp := range n.SubPlots() {
		drawSubPlot(img, cellRect(sp.Cell, opts), sp)
	}
	return img
}

// Write encodes the rendering of n as PNG.
func Write(w io.Writer, n *nodes.Node, opts Options) error {
	if err := png.Encode(w, Render(n, opts)); err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay, "Cannot encode snapshot", "")
	}
	return nil
}

// Save writes the rendering of n to a PNG file at path.
func Save(path string, n *nodes.Node, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay,
			"Cannot create "+path,
			"Check the directory exists and is writable")
	}
	if err := Write(f, n, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrDisplay, "Cannot write "+path, "")
	}
	return nil
}

// cellRect mirrors the dashboard grid: cells are numbered row-major.
func cellRect(idx int, opts Options) image.Rectangle {
	col, row := idx%plot.GridCols, idx/plot.GridCols
	x, y := col*opts.CellWidth, row*opts.CellHeight
	return image.Rect(x, y, x+opts.CellWidth, y+opts.CellHeight)
}

func drawSubPlot(img *image.RGBA, cell image.Rectangle, sp *plot.SubPlot) {
	strokeRect(img, cell.Inset(1), muted)
	drawText(img, cell.Min.X+margin, cell.Min.Y+margin+lineHeight, foreground, sp.Title)

	samples := sp.Samples()
	if len(samples) == 0 {
		drawText(img, cell.Min.X+margin, cell.Min.Y+margin+3*lineHeight, muted, "waiting for data")
		return
	}

	area := image.Rect(
		cell.Min.X+margin, cell.Min.Y+margin+2*lineHeight,
		cell.Max.X-margin, cell.Max.Y-margin-lineHeight,
	)
	if area.Dx() < 2 || area.Dy() < 2 {
		return
	}

	t0, t1 := samples[0].T, samples[len(samples)-1].T
	if t1-t0 < 1e-9 {
		t0, t1 = t0-1, t0
	}
	lo, hi := valueRange(samples, sp.Channels())
	if hi-lo < 1e-12 {
		lo, hi = lo-0.5, hi+0.5
	}

	px := func(t float64) int {
		return area.Min.X + int(math.Round((t-t0)/(t1-t0)*float64(area.Dx()-1)))
	}
	py := func(v float64) int {
		return area.Max.Y - 1 - int(math.Round((v-lo)/(hi-lo)*float64(area.Dy()-1)))
	}

	for ch := 0; ch < sp.Channels(); ch++ {
		c := ChannelColors[ch]
		prevX, prevY := px(samples[0].T), py(samples[0].Values[ch])
		img.SetRGBA(prevX, prevY, c)
		for _, s := range samples[1:] {
			x, y := px(s.T), py(s.Values[ch])
			strokeLine(img, prevX, prevY, x, y, c)
			prevX, prevY = x, y
		}
	}

	drawText(img, cell.Min.X+margin, cell.Max.Y-margin, muted, fmt.Sprintf("%.3g .. %.3g", lo, hi))
}

func valueRange(samples []plot.Sample, channels int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		for ch := 0; ch < channels; ch++ {
			lo = math.Min(lo, s.Values[ch])
			hi = math.Max(hi, s.Values[ch])
		}
	}
	return lo, hi
}

func drawText(img *image.RGBA, x, y int, c color.Color, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// strokeLine draws a one pixel line with Bresenham's algorithm.
func strokeLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	strokeLine(img, r.Min.X, r.Min.Y, r.Max.X-1, r.Min.Y, c)
	strokeLine(img, r.Min.X, r.Max.Y-1, r.Max.X-1, r.Max.Y-1, c)
	strokeLine(img, r.Min.X, r.Min.Y, r.Min.X, r.Max.Y-1, c)
	strokeLine(img, r.Max.X-1, r.Min.Y, r.Max.X-1, r.Max.Y-1, c)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
