package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Named("airport").WithFlight("f-1", "Rome").Info("Flight added", Bool("vip", true))
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "airport", entry["logger"])
	assert.Equal(t, "Flight added", entry["msg"])
	assert.Equal(t, "f-1", entry["flight_id"])
	assert.Equal(t, "Rome", entry["destination"])
	assert.Equal(t, true, entry["vip"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Format: "console", Output: &buf})
	require.NoError(t, err)

	log.Named("console").Warn("Rejected", String("reason", "closed"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "\033[1;33mwarn\033[0m")
	assert.Contains(t, out, "console     ")
	assert.Contains(t, out, `"reason": "closed"`)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Named("x").WithRequestID("abc").Error("ignored")
}
