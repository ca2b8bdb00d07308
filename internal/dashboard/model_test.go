package dashboard

import (
	"encoding/json"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/statemon/internal/bus/bustest"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/rileyhilliard/statemon/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, topics ...string) (Model, *bustest.Bus, *logger.BufferLogger) {
	t.Helper()
	b := bustest.New(topics...)
	s, err := surface.New(surface.Options{Quality: 0})
	require.NoError(t, err)
	log := logger.NewBufferLogger()

	m := NewModel(Options{Bus: b, Surface: s, Config: config.DefaultConfig(), Log: log})
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	return m, b, log
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// tick presses k (if any) and runs one draw tick.
func tick(t *testing.T, m Model, k string) Model {
	t.Helper()
	if k != "" {
		m = update(t, m, keyMsg(k))
	}
	return update(t, m, drawTickMsg{})
}

func swfTopics(bases ...string) []string {
	var out []string
	for _, b := range bases {
		out = append(out, b+"swf/local_odometry")
	}
	return out
}

func TestModel_Init(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.NotNil(t, m.Init())
}

func TestModel_NoNodes(t *testing.T) {
	m, _, _ := newTestModel(t, "some/unrelated/topic")
	m = update(t, m, scanTickMsg{})
	m = tick(t, m, "down")

	assert.Equal(t, 0, m.Registry().Len())
	assert.Equal(t, "", m.Focus())
	assert.Equal(t, "", m.surface.Frame(), "draw is a no-op without nodes")
	assert.Contains(t, m.View(), "Waiting for estimators on tcp://localhost:1883")
}

func TestModel_ScanRegisters(t *testing.T) {
	m, b, log := newTestModel(t,
		"a/swf/local_odometry",
		"a/swf/linear_acceleration_biases",
		"r/rovio/odometry",
		"other/topic",
	)

	m = update(t, m, scanTickMsg{})
	m = update(t, m, scanTickMsg{})

	assert.Equal(t, []string{"a/", "r/rovio/"}, m.Registry().Names())
	n, ok := m.Registry().Get("a/")
	require.True(t, ok)
	assert.Equal(t, nodes.GenericFilter, n.Variant())
	n, _ = m.Registry().Get("r/rovio/")
	assert.Equal(t, nodes.AlternateFilter, n.Variant())

	for _, topic := range []string{
		"a/swf/local_odometry",
		"a/swf/linear_acceleration_biases",
		"a/swf/angular_velocity_biases",
		"r/rovio/odometry",
		"r/rovio/imu_biases",
	} {
		assert.Equal(t, 1, b.Subscribers(topic), "%s subscribed exactly once", topic)
	}
	assert.True(t, log.Contains("info", "Monitoring a/"))
}

func TestModel_ScanRetriesFailedSubscribe(t *testing.T) {
	m, b, log := newTestModel(t, "a/swf/local_odometry")
	b.SubscribeErr["a/swf/angular_velocity_biases"] = fmt.Errorf("denied")

	m = update(t, m, scanTickMsg{})
	assert.Equal(t, 0, m.Registry().Len())
	assert.True(t, log.Contains("warn", "a/"))

	delete(b.SubscribeErr, "a/swf/angular_velocity_biases")
	m = update(t, m, scanTickMsg{})
	assert.Equal(t, []string{"a/"}, m.Registry().Names())
	assert.Equal(t, 1, b.Subscribers("a/swf/local_odometry"))
	assert.Equal(t, 1, b.Subscribers("a/swf/angular_velocity_biases"))
}

func TestModel_FocusCycling(t *testing.T) {
	m, _, _ := newTestModel(t, swfTopics("c/", "a/", "b/")...)
	m = update(t, m, scanTickMsg{})

	m = tick(t, m, "")
	assert.Equal(t, "a/", m.Focus(), "first draw focuses the first name")

	m = tick(t, m, "down")
	assert.Equal(t, "b/", m.Focus())

	m = tick(t, m, "down")
	assert.Equal(t, "b/", m.Focus(), "held key only moves focus once")

	m = tick(t, m, "")
	m = tick(t, m, "j")
	assert.Equal(t, "c/", m.Focus())

	m = tick(t, m, "")
	m = tick(t, m, "down")
	assert.Equal(t, "a/", m.Focus(), "next wraps")

	m = tick(t, m, "up")
	assert.Equal(t, "c/", m.Focus(), "prev wraps")

	m = tick(t, m, "k")
	assert.Equal(t, "b/", m.Focus())
}

func TestModel_NextThenPrevReturns(t *testing.T) {
	m, _, _ := newTestModel(t, swfTopics("a/", "b/", "c/", "d/")...)
	m = update(t, m, scanTickMsg{})
	m = tick(t, m, "")

	for _, start := range []string{"a/", "b/", "c/", "d/"} {
		m.focus = start
		m = tick(t, m, "")
		m = tick(t, m, "down")
		m = tick(t, m, "up")
		assert.Equal(t, start, m.Focus())
	}
}

func TestModel_NewestKeyWins(t *testing.T) {
	m, _, _ := newTestModel(t, swfTopics("a/", "b/", "c/")...)
	m = update(t, m, scanTickMsg{})
	m = tick(t, m, "")

	m = update(t, m, keyMsg("down"))
	m = update(t, m, keyMsg("up"))
	m = tick(t, m, "")
	assert.Equal(t, "c/", m.Focus(), "only the newest key of a tick applies")
}

func TestModel_DeliveriesAndDraw(t *testing.T) {
	m, b, log := newTestModel(t, swfTopics("a/")...)
	m = update(t, m, scanTickMsg{})

	var odom msgs.Odometry
	odom.Header.Stamp = msgs.Time{Secs: 100}
	odom.Pose.Pose.Position = msgs.Point{X: 1, Y: 2, Z: 3}
	odom.Pose.Pose.Orientation = msgs.Quaternion{W: 1}
	require.NoError(t, b.DeliverJSON("a/swf/local_odometry", odom))
	b.Deliver("a/swf/angular_velocity_biases", []byte("not json"))

	msg := m.waitForDelivery()()
	batch, ok := msg.(deliveryMsg)
	require.True(t, ok)
	assert.Len(t, batch, 2)
	m = update(t, m, msg)

	n, _ := m.Registry().Get("a/")
	assert.Equal(t, 1, n.SubPlots()[0].Len())
	assert.Equal(t, 1, m.decodeErrors)
	assert.True(t, log.HasLevel("warn"))

	m = tick(t, m, "")
	frame := m.surface.Frame()
	assert.Contains(t, frame, "State Monitor")
	assert.Contains(t, frame, "Monitored Nodes:")
	assert.Contains(t, frame, "▸ a/")
	assert.Contains(t, frame, "Position (m)")
	assert.Contains(t, frame, "Orientation (rad)")
	assert.Contains(t, frame, "1 bad message")
	assert.Contains(t, m.View(), frame)
}

func TestModel_EnqueueNeverBlocks(t *testing.T) {
	m, b, _ := newTestModel(t, swfTopics("a/")...)
	m = update(t, m, scanTickMsg{})

	for i := 0; i < DeliveryBuffer+10; i++ {
		b.Deliver("a/swf/local_odometry", []byte("{}"))
	}
	assert.Len(t, m.deliveries, DeliveryBuffer)
}

func TestModel_Reset(t *testing.T) {
	t.Run("failure logged and state unchanged", func(t *testing.T) {
		m, b, log := newTestModel(t, swfTopics("a/", "b/")...)
		m = update(t, m, scanTickMsg{})
		m = tick(t, m, "")

		next, cmd := m.Update(keyMsg("r"))
		m = next.(Model)
		require.NotNil(t, cmd)

		msg := cmd()
		result, ok := msg.(resetResultMsg)
		require.True(t, ok)
		assert.Error(t, result.err)
		assert.True(t, log.Contains("error", "a/"))
		assert.Equal(t, 1, b.CallCount("a/reset"))

		m = update(t, m, msg)
		assert.Equal(t, "a/", m.Focus())
		assert.Equal(t, []string{"a/", "b/"}, m.Registry().Names())
		assert.Contains(t, m.View(), "reset a/ failed")
	})

	t.Run("success", func(t *testing.T) {
		m, b, log := newTestModel(t, swfTopics("a/")...)
		require.NoError(t, b.Serve("a/reset", func(json.RawMessage) (interface{}, error) {
			return msgs.Empty{}, nil
		}))
		m = update(t, m, scanTickMsg{})
		m = tick(t, m, "")

		_, cmd := m.Update(keyMsg("r"))
		require.NotNil(t, cmd)
		result := cmd().(resetResultMsg)
		assert.NoError(t, result.err)
		assert.True(t, log.Contains("info", "Reset a/"))
	})

	t.Run("no focus", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		_, cmd := m.Update(keyMsg("r"))
		assert.Nil(t, cmd)
	})
}

func TestModel_QuitAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, keyMsg("?"))
	assert.True(t, m.help.ShowAll)
	m = update(t, m, keyMsg("?"))
	assert.False(t, m.help.ShowAll)

	for _, k := range []string{"q", "ctrl+c"} {
		next, cmd := m.Update(keyMsg(k))
		require.NotNil(t, cmd, k)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, "", next.(Model).View())
	}
}
