package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/flight"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/pkg/logger"
)

func TestNewApp_WiresHistoryAndMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Format = "json"

	var logs bytes.Buffer
	rec := &notify.Recorder{}
	a, err := newApp(cfg, &logs, func(*logger.Logger) notify.Sink { return rec })
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.history)
	require.NotNil(t, a.promReg)

	_, err = a.registry.AddFlight("Lisbon", false)
	require.NoError(t, err)
	require.NoError(t, a.registry.ChangeFlightStatus(0, flight.Boarding))

	changes, err := a.history.GetRecentChanges(10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "boarding", changes[0].Status)

	families, err := a.promReg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "flightboard_flights_added_total")

	assert.NotEmpty(t, rec.Notices())
	assert.Contains(t, logs.String(), "Flight board ready")
}

func TestNewApp_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Enabled = false
	cfg.Metrics.Enabled = false

	a, err := newApp(cfg, &bytes.Buffer{}, func(*logger.Logger) notify.Sink { return notify.Discard })
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.history)
	assert.Nil(t, a.promReg)
	_, err = a.registry.AddFlight("Riga", true)
	assert.NoError(t, err)
}

func TestConsoleConfig_DisablesMetricsOnly(t *testing.T) {
	cfg := config.DefaultConfig()

	a, err := newApp(consoleConfig(cfg), &bytes.Buffer{}, func(*logger.Logger) notify.Sink { return notify.Discard })
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.promReg)
	assert.NotNil(t, a.history)
	assert.True(t, cfg.Metrics.Enabled)
}
