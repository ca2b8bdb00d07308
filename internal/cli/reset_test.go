package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rileyhilliard/statemon/internal/bus/bustest"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/msgs"
	"github.com/rileyhilliard/statemon/internal/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCommand(t *testing.T) {
	b := bustest.New()
	require.NoError(t, b.Serve("robot/reset", func(json.RawMessage) (interface{}, error) {
		return msgs.Empty{}, nil
	}))
	useBus(t, b, nil)

	var out bytes.Buffer
	require.NoError(t, resetCommand(context.Background(), config.DefaultConfig(), nodes.GenericFilter, "robot/", &out))

	assert.Equal(t, 1, b.CallCount("robot/reset"))
	assert.Contains(t, out.String(), "Reset robot/ (generic-filter)")
	assert.True(t, b.Closed)
}

func TestResetCommand_Fusion(t *testing.T) {
	b := bustest.New()
	service := "uav/msf_updates/pose_sensor/initialize_msf_scale"
	require.NoError(t, b.Serve(service, func(body json.RawMessage) (interface{}, error) {
		return msgs.InitScaleResponse{Result: "ok"}, nil
	}))
	useBus(t, b, nil)

	require.NoError(t, resetCommand(context.Background(), config.DefaultConfig(), nodes.FusionFilter, "uav/", &bytes.Buffer{}))

	require.Len(t, b.Calls, 1)
	var req msgs.InitScaleRequest
	require.NoError(t, json.Unmarshal(b.Calls[0].Body, &req))
	assert.Equal(t, 1.0, req.Scale)
}

func TestResetCommand_NoService(t *testing.T) {
	useBus(t, bustest.New(), nil)

	var out bytes.Buffer
	err := resetCommand(context.Background(), config.DefaultConfig(), nodes.GenericFilter, "ghost/", &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrReset))
	assert.Contains(t, err.Error(), "ghost/reset")
	assert.Empty(t, out.String())
}
