package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/statemon/internal/bus/bustest"
	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_NonInteractive(t *testing.T) {
	b := bustest.New()
	dialed := useBus(t, b, nil)
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	var out bytes.Buffer
	err := Init(context.Background(), InitOptions{
		Path:           path,
		Broker:         "tcp://robot.local:1883",
		NonInteractive: true,
		Out:            &out,
	})
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://robot.local:1883", cfg.Bus.Broker)
	assert.Equal(t, "statemon", cfg.Bus.ClientID, "the probe's client ID is not saved")

	require.Len(t, *dialed, 1)
	assert.Equal(t, "tcp://robot.local:1883", (*dialed)[0].Broker)
	assert.True(t, b.Closed, "probe connection is closed")
	assert.Contains(t, out.String(), "Created "+path)
}

func TestInit_ExistingConfig(t *testing.T) {
	useBus(t, bustest.New(), nil)
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	err := Init(context.Background(), InitOptions{Path: path, NonInteractive: true, Out: &bytes.Buffer{}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data), "existing file is untouched")
}

func TestInit_ForceOverwrites(t *testing.T) {
	useBus(t, bustest.New(), nil)
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	require.NoError(t, Init(context.Background(), InitOptions{
		Path:           path,
		Overwrite:      true,
		NonInteractive: true,
		Out:            &bytes.Buffer{},
	}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Bus.Broker, cfg.Bus.Broker)
}

func TestInit_InvalidBroker(t *testing.T) {
	dialed := useBus(t, bustest.New(), nil)
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	err := Init(context.Background(), InitOptions{
		Path:           path,
		Broker:         "localhost:1883",
		NonInteractive: true,
		Out:            &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Empty(t, *dialed, "no probe for an invalid config")
	assert.NoFileExists(t, path)
}

func TestInit_UnreachableBroker(t *testing.T) {
	useBus(t, nil, errors.New(errors.ErrBus, "Cannot connect to broker tcp://localhost:1883", ""))
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	var out bytes.Buffer
	err := Init(context.Background(), InitOptions{Path: path, NonInteractive: true, Out: &out})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBus))
	assert.NoFileExists(t, path)
}

func TestValidateBrokerInput(t *testing.T) {
	assert.NoError(t, validateBrokerInput("tcp://localhost:1883"))
	assert.NoError(t, validateBrokerInput("ws://broker:9001"))
	assert.Error(t, validateBrokerInput(""))
	assert.Error(t, validateBrokerInput("   "))
	assert.Error(t, validateBrokerInput("localhost:1883"))
}
