package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/bus/bustest"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/plotters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		topic   string
		variant Variant
		base    string
		ok      bool
	}{
		{"a/swf/local_odometry", GenericFilter, "a/", true},
		{"swf/local_odometry", GenericFilter, "", true},
		{"robot/rovio/odometry", AlternateFilter, "robot/rovio/", true},
		{"uav/msf_core/odometry", FusionFilter, "uav/", true},
		{"uav/msf_core/state_out", 0, "", false},
		{"a/swf/linear_acceleration_biases", 0, "", false},
		{"a/odometry", 0, "", false},
		{"", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			v, base, ok := Match(tt.topic)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.variant, v)
				assert.Equal(t, tt.base, base)
			}
		})
	}
}

func TestMatch_Priority(t *testing.T) {
	// Both signatures appear; the generic filter is checked first.
	v, base, ok := Match("x/rovio/swf/local_odometry")
	require.True(t, ok)
	assert.Equal(t, GenericFilter, v)
	assert.Equal(t, "x/rovio/", base)
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{
		"swf":            GenericFilter,
		"generic-filter": GenericFilter,
		"ROVIO":          AlternateFilter,
		"alternate":      AlternateFilter,
		" msf ":          FusionFilter,
		"fusion-filter":  FusionFilter,
	} {
		got, err := ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseVariant("kalman")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Equal(t, "Variant(9)", Variant(9).String())
}

func TestBaseFor(t *testing.T) {
	assert.Equal(t, "a/", BaseFor(GenericFilter, "a/"))
	assert.Equal(t, "a/rovio/", BaseFor(AlternateFilter, "a/"))
	assert.Equal(t, "a/", BaseFor(FusionFilter, "a/"))

	// The base of a published signature topic round-trips through Match
	for _, v := range []Variant{GenericFilter, AlternateFilter, FusionFilter} {
		base := BaseFor(v, "robot/")
		n := New(v, base, time.Second)
		got, gotBase, ok := Match(n.Topics()[0])
		require.True(t, ok, v.String())
		assert.Equal(t, v, got)
		assert.Equal(t, base, gotBase)
	}
}

func TestNew_Layouts(t *testing.T) {
	tests := []struct {
		variant Variant
		base    string
		topics  []string
		reset   string
	}{
		{
			GenericFilter, "a/",
			[]string{"a/swf/local_odometry", "a/swf/linear_acceleration_biases", "a/swf/angular_velocity_biases"},
			"a/reset",
		},
		{
			AlternateFilter, "r/rovio/",
			[]string{"r/rovio/odometry", "r/rovio/imu_biases"},
			"r/rovio/reset",
		},
		{
			FusionFilter, "m/",
			[]string{"m/msf_core/odometry", "m/msf_core/state_out"},
			"m/msf_updates/pose_sensor/initialize_msf_scale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			n := New(tt.variant, tt.base, 10*time.Second)
			assert.Equal(t, tt.base, n.Name())
			assert.Equal(t, tt.variant, n.Variant())
			assert.Equal(t, tt.topics, n.Topics())
			assert.Equal(t, tt.reset, n.ResetService())

			cells := map[int]string{}
			for _, sp := range n.SubPlots() {
				_, dup := cells[sp.Cell]
				assert.False(t, dup, "cell %d used twice", sp.Cell)
				cells[sp.Cell] = sp.Title
			}
			assert.Equal(t, map[int]string{
				CellPosition:        plotters.TitlePosition,
				CellLinearVelocity:  plotters.TitleLinearVelocity,
				CellAccelBias:       plotters.TitleLinearAccelBias,
				CellOrientation:     plotters.TitleOrientation,
				CellAngularVelocity: plotters.TitleAngularVelocity,
				CellGyroBias:        plotters.TitleAngularVelBias,
			}, cells)
		})
	}
}

func TestSubscribe(t *testing.T) {
	b := bustest.New()
	n := New(GenericFilter, "a/", 10*time.Second)

	var delivered []string
	deliver := func(p *plotters.Plotter, m bus.Message) {
		delivered = append(delivered, p.Topic())
		require.NoError(t, p.Handle(m.Payload))
	}
	require.NoError(t, n.Subscribe(b, deliver))

	require.NoError(t, b.DeliverJSON("a/swf/linear_acceleration_biases", msgs.PointStamped{
		Header: msgs.Header{Stamp: msgs.Time{Secs: 1}},
		Point:  msgs.Point{X: 1},
	}))
	assert.Equal(t, []string{"a/swf/linear_acceleration_biases"}, delivered)

	// Subscribing again adds nothing
	require.NoError(t, n.Subscribe(b, deliver))
	assert.Equal(t, 1, b.Subscribers("a/swf/local_odometry"))
}

func TestSubscribe_RetryAfterFailure(t *testing.T) {
	b := bustest.New()
	b.SubscribeErr["a/swf/angular_velocity_biases"] = fmt.Errorf("not authorised")
	n := New(GenericFilter, "a/", 10*time.Second)
	noop := func(*plotters.Plotter, bus.Message) {}

	err := n.Subscribe(b, noop)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBus))
	assert.Contains(t, err.Error(), "a/swf/angular_velocity_biases")

	delete(b.SubscribeErr, "a/swf/angular_velocity_biases")
	require.NoError(t, n.Subscribe(b, noop))
	for _, topic := range n.Topics() {
		assert.Equal(t, 1, b.Subscribers(topic), topic)
	}
}

func TestReset(t *testing.T) {
	t.Run("generic sends empty request", func(t *testing.T) {
		b := bustest.New()
		var body json.RawMessage
		require.NoError(t, b.Serve("a/reset", func(req json.RawMessage) (interface{}, error) {
			body = req
			return msgs.Empty{}, nil
		}))
		log := logger.NewBufferLogger()

		n := New(GenericFilter, "a/", time.Second)
		require.NoError(t, n.Reset(context.Background(), b, log))
		assert.JSONEq(t, `{}`, string(body))
		assert.True(t, log.Contains("info", "Reset a/"))
		assert.False(t, log.HasLevel("error"))
	})

	t.Run("fusion sends unit scale", func(t *testing.T) {
		b := bustest.New()
		service := "m/msf_updates/pose_sensor/initialize_msf_scale"
		var req msgs.InitScaleRequest
		require.NoError(t, b.Serve(service, func(body json.RawMessage) (interface{}, error) {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, err
			}
			return msgs.InitScaleResponse{Result: "Initialized scale"}, nil
		}))
		log := logger.NewBufferLogger()

		n := New(FusionFilter, "m/", time.Second)
		require.NoError(t, n.Reset(context.Background(), b, log))
		assert.Equal(t, 1.0, req.Scale)
		assert.True(t, log.Contains("info", "fusion-filter"))
	})

	t.Run("failure is logged", func(t *testing.T) {
		b := bustest.New()
		log := logger.NewBufferLogger()

		n := New(AlternateFilter, "r/rovio/", time.Second)
		err := n.Reset(context.Background(), b, log)
		require.Error(t, err)
		assert.True(t, log.Contains("error", "r/rovio/"))
		assert.False(t, log.HasLevel("info"))
		assert.Equal(t, 1, b.CallCount("r/rovio/reset"), "no retry")
	})
}
