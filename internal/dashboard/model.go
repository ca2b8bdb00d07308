package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/plot"
	"github.com/rileyhilliard/statemon/internal/plotters"
	"github.com/rileyhilliard/statemon/internal/surface"
)

// DeliveryBuffer is how many bus deliveries may wait for the event loop
// before new ones are dropped.
const DeliveryBuffer = 4096

// maxBatch caps how many deliveries one message carries.
const maxBatch = 256

// drawTickMsg triggers one redraw.
type drawTickMsg time.Time

// scanTickMsg triggers one discovery pass.
type scanTickMsg time.Time

type delivery struct {
	plotter *plotters.Plotter
	payload []byte
}

// deliveryMsg carries bus messages received since the last batch.
type deliveryMsg []delivery

// resetResultMsg reports the outcome of a reset request.
type resetResultMsg struct {
	name string
	err  error
}

// Options wires a Model to its collaborators.
type Options struct {
	Bus     bus.Bus
	Surface *surface.Surface
	Config  *config.Config
	Log     logger.Logger
}

// Model is the Bubble Tea model for the estimator dashboard.
type Model struct {
	bus     bus.Bus
	surface *surface.Surface
	cfg     *config.Config
	log     logger.Logger
	palette plot.Palette

	registry *Registry
	pending  map[string]*nodes.Node // matched but not yet fully subscribed

	deliveries   chan delivery
	decodeErrors int

	focus   string
	prevKey string

	keys     keyMap
	help     help.Model
	width    int
	height   int
	status   string
	quitting bool
}

// NewModel creates the dashboard model. The palette is resolved here, before
// the program takes over the terminal.
func NewModel(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = logger.Noop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return Model{
		bus:        opts.Bus,
		surface:    opts.Surface,
		cfg:        cfg,
		log:        log,
		palette:    plot.DefaultPalette(opts.Surface.Mono()),
		registry:   NewRegistry(),
		pending:    make(map[string]*nodes.Node),
		deliveries: make(chan delivery, DeliveryBuffer),
		keys:       newKeyMap(cfg.Keys),
		help:       help.New(),
	}
}

// Registry exposes the node registry.
func (m Model) Registry() *Registry { return m.registry }

// Focus returns the name of the focused node, or "" before the first draw.
func (m Model) Focus() string { return m.focus }

// Init starts both timers, runs an immediate scan and begins draining
// bus deliveries.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanTickMsg(time.Now()) },
		m.drawTickCmd(),
		m.waitForDelivery(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.HandleKeyMsg(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case drawTickMsg:
		m.draw()
		return m, m.drawTickCmd()

	case scanTickMsg:
		m.scan()
		return m, m.scanTickCmd()

	case deliveryMsg:
		m.handleDeliveries(msg)
		return m, m.waitForDelivery()

	case resetResultMsg:
		if msg.err != nil {
			m.status = StatusErrStyle.Render(fmt.Sprintf("reset %s failed", msg.name))
		} else {
			m.status = StatusOKStyle.Render(fmt.Sprintf("reset %s", msg.name))
		}
		return m, nil
	}

	return m, nil
}

// HandleKeyMsg processes one key. Focus keys are queued on the surface and
// applied on the next draw tick; everything else acts immediately.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case bound(m.keys.Quit, k):
		m.quitting = true
		return tea.Quit
	case bound(m.keys.Help, k):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil
	case bound(m.keys.Reset, k):
		return m.resetCmd()
	}
	m.surface.PushKey(k)
	return nil
}

func (m *Model) layout() {
	h := m.height - lipgloss.Height(m.footer())
	m.surface.Resize(m.width, max(h, 1))
}

func (m Model) drawTickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Refresh.DrawInterval, func(t time.Time) tea.Msg {
		return drawTickMsg(t)
	})
}

func (m Model) scanTickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Refresh.ScanInterval, func(t time.Time) tea.Msg {
		return scanTickMsg(t)
	})
}

// scan registers and subscribes every newly discovered estimator. A node
// whose subscriptions fail stays pending and is retried on the next scan.
func (m *Model) scan() {
	for _, topic := range m.bus.Topics() {
		variant, base, ok := nodes.Match(topic)
		if !ok || m.registry.Has(base) {
			continue
		}

		n, ok := m.pending[base]
		if !ok {
			n = nodes.New(variant, base, m.cfg.Plot.Retention())
			m.pending[base] = n
		}
		if err := n.Subscribe(m.bus, m.enqueue); err != nil {
			m.log.Warn("Cannot monitor %s yet: %s", base, errors.Summary(err))
			continue
		}

		delete(m.pending, base)
		m.registry.Register(n)
		m.log.Info("Monitoring %s (%s)", base, variant)
	}
}

// enqueue runs on the bus goroutine. It never blocks; deliveries beyond the
// buffer are dropped.
func (m Model) enqueue(p *plotters.Plotter, msg bus.Message) {
	select {
	case m.deliveries <- delivery{plotter: p, payload: msg.Payload}:
	default:
		m.log.Debug("Dropping message on %s: event loop is behind", msg.Topic)
	}
}

func (m Model) waitForDelivery() tea.Cmd {
	ch := m.deliveries
	return func() tea.Msg {
		batch := deliveryMsg{<-ch}
		for len(batch) < maxBatch {
			select {
			case d := <-ch:
				batch = append(batch, d)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m *Model) handleDeliveries(batch deliveryMsg) {
	for _, d := range batch {
		if err := d.plotter.Handle(d.payload); err != nil {
			m.decodeErrors++
			m.log.Warn("%s", errors.Summary(err))
		}
	}
}

// draw renders one frame: pick a focus, apply at most one focus key, plot
// the focused node and the sidebar.
func (m *Model) draw() {
	m.surface.ResizeAndClear()

	if m.focus == "" {
		first, ok := m.registry.First()
		if !ok {
			return
		}
		m.focus = first
	}

	m.cycleFocus(m.surface.Keypress())

	if n, ok := m.registry.Get(m.focus); ok {
		m.plotNode(n)
	}
	sidebar := m.surface.Column(plot.GridCols, plot.SidebarColumn)
	m.surface.Draw(sidebar, m.sidebar(sidebar.W))
	m.surface.Render()
}

// cycleFocus moves focus on the rising edge of a next or prev key. The same
// key on consecutive ticks moves focus once.
func (m *Model) cycleFocus(k string) {
	if k == m.prevKey {
		return
	}
	m.prevKey = k

	switch {
	case bound(m.keys.Next, k):
		m.focus = m.registry.Next(m.focus)
	case bound(m.keys.Prev, k):
		m.focus = m.registry.Prev(m.focus)
	}
}

func (m *Model) plotNode(n *nodes.Node) {
	subplots := n.SubPlots()

	// The node's newest stamp stands in for the current time, so streams
	// that have gone quiet drain out of the window.
	now, seen := 0.0, false
	for _, sp := range subplots {
		if s, ok := sp.Latest(); ok && (!seen || s.T > now) {
			now, seen = s.T, true
		}
	}

	for _, sp := range subplots {
		if seen {
			sp.Trim(now)
		}
		r := m.surface.Cell(plot.GridCols, plot.GridRows, sp.Cell)
		m.surface.Draw(r, sp.Render(r.W, r.H, m.palette))
	}
}

func (m Model) resetCmd() tea.Cmd {
	n, ok := m.registry.Get(m.focus)
	if !ok {
		return nil
	}
	b, log, timeout := m.bus, m.log, m.cfg.Bus.CallTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resetResultMsg{name: n.Name(), err: n.Reset(ctx, b, log)}
	}
}
