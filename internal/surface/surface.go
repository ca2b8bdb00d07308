// Package surface is the drawing context the dashboard renders into. It owns
// the cell grid, composes drawn cells into a frame, and queues key events
// between draw ticks.
package surface

import (
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/rileyhilliard/statemon/internal/errors"
)

// Options configures a Surface.
type Options struct {
	// Quality selects the color profile: 0 monochrome, 1 ANSI, 2+ true color.
	Quality int

	// Padding is the blank border kept around the grid, in cells.
	Padding int

	// Output is checked for a terminal when set.
	Output *os.File
}

// Rect is a cell-aligned region of the surface.
type Rect struct {
	X, Y int
	W, H int
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

type drawn struct {
	rect Rect
	text string
}

// Surface is a fixed-size grid of text cells redrawn every tick.
type Surface struct {
	opts    Options
	profile termenv.Profile

	winW, winH    int
	width, height int

	cells []drawn
	frame string
	keys  []string
}

// New creates a surface. It fails when Output is not a terminal.
func New(opts Options) (*Surface, error) {
	if opts.Output != nil && !term.IsTerminal(int(opts.Output.Fd())) {
		return nil, errors.New(errors.ErrDisplay,
			"Cannot open the display: output is not a terminal",
			"Run statemon in an interactive terminal, or use 'statemon topics' for plain output")
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}

	s := &Surface{
		opts:    opts,
		profile: ProfileFor(opts.Quality),
		width:   1,
		height:  1,
	}
	lipgloss.SetColorProfile(s.profile)
	return s, nil
}

// ProfileFor maps a quality level to a color profile.
func ProfileFor(quality int) termenv.Profile {
	switch {
	case quality <= 0:
		return termenv.Ascii
	case quality == 1:
		return termenv.ANSI
	default:
		return termenv.TrueColor
	}
}

// Mono reports whether the surface renders without color.
func (s *Surface) Mono() bool { return s.profile == termenv.Ascii }

// Resize records the host window size.
func (s *Surface) Resize(width, height int) {
	s.winW, s.winH = width, height
}

// ResizeAndClear fits the grid to the window minus padding and forgets
// everything drawn since the last Render.
func (s *Surface) ResizeAndClear() {
	s.width = max(s.winW-2*s.opts.Padding, 1)
	s.height = max(s.winH-2*s.opts.Padding, 1)
	s.cells = s.cells[:0]
}

// Size returns the grid size in cells.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Cell returns the rectangle of cell idx in a cols x rows grid, numbered
// row-major from the top left. The last column and row absorb any remainder.
func (s *Surface) Cell(cols, rows, idx int) Rect {
	if cols <= 0 || rows <= 0 || idx < 0 || idx >= cols*rows {
		return Rect{}
	}
	col, row := idx%cols, idx/cols
	x, w := span(s.width, cols, col)
	y, h := span(s.height, rows, row)
	return Rect{X: x, Y: y, W: w, H: h}
}

// Column returns the full-height rectangle of column col in a grid of cols columns.
func (s *Surface) Column(cols, col int) Rect {
	if cols <= 0 || col < 0 || col >= cols {
		return Rect{}
	}
	x, w := span(s.width, cols, col)
	return Rect{X: x, Y: 0, W: w, H: s.height}
}

func span(total, parts, i int) (offset, size int) {
	size = total / parts
	offset = size * i
	if i == parts-1 {
		size = total - offset
	}
	return offset, size
}

// Draw places text into r, clipped to its bounds.
func (s *Surface) Draw(r Rect, text string) {
	if r.Empty() {
		return
	}
	s.cells = append(s.cells, drawn{rect: r, text: text})
}

// DrawColumn draws text over a whole grid column.
func (s *Surface) DrawColumn(cols, col int, text string) {
	s.Draw(s.Column(cols, col), text)
}

// Render composes the drawn cells into a frame and returns it.
func (s *Surface) Render() string {
	cells := make([]drawn, len(s.cells))
	copy(cells, s.cells)
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].rect.X != cells[j].rect.X {
			return cells[i].rect.X < cells[j].rect.X
		}
		return cells[i].rect.Y < cells[j].rect.Y
	})

	var columns []string
	x := 0
	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && cells[j].rect.X == cells[i].rect.X {
			j++
		}
		if gap := cells[i].rect.X - x; gap > 0 {
			columns = append(columns, blank(gap, s.height))
		}
		col, w := s.composeColumn(cells[i:j])
		columns = append(columns, col)
		x = cells[i].rect.X + w
		i = j
	}
	if x < s.width {
		columns = append(columns, blank(s.width-x, s.height))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	s.frame = lipgloss.NewStyle().Padding(s.opts.Padding).Render(body)
	return s.frame
}

func (s *Surface) composeColumn(cells []drawn) (string, int) {
	w := 0
	for _, c := range cells {
		w = max(w, c.rect.W)
	}

	var blocks []string
	y := 0
	for _, c := range cells {
		if c.rect.Y < y {
			// Overlaps the previous block; the earlier draw wins.
			continue
		}
		if gap := c.rect.Y - y; gap > 0 {
			blocks = append(blocks, blank(w, gap))
		}
		blocks = append(blocks, clip(c.text, w, c.rect.H))
		y = c.rect.Y + c.rect.H
	}
	if y < s.height {
		blocks = append(blocks, blank(w, s.height-y))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...), w
}

func clip(text string, w, h int) string {
	return lipgloss.NewStyle().
		Width(w).Height(h).
		MaxWidth(w).MaxHeight(h).
		Render(text)
}

func blank(w, h int) string {
	line := strings.Repeat(" ", w)
	lines := make([]string, h)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Frame returns the most recently rendered frame.
func (s *Surface) Frame() string { return s.frame }

// PushKey queues a key event for the next Keypress.
func (s *Surface) PushKey(key string) {
	s.keys = append(s.keys, key)
}

// Keypress drains the key queue and returns the newest key, or "" if none
// arrived since the last call.
func (s *Surface) Keypress() string {
	if len(s.keys) == 0 {
		return ""
	}
	k := s.keys[len(s.keys)-1]
	s.keys = s.keys[:0]
	return k
}
