package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("status changed", "project_id", "p1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "status changed", line["msg"])
	require.Equal(t, "p1", line["project_id"])
	require.Equal(t, "WARN", line["level"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "DEBUG", Format: "text"})
	require.NoError(t, err)

	logger.Debug("change order submitted", "number", 3)
	require.Contains(t, buf.String(), "change order submitted")
	require.Contains(t, buf.String(), "number=3")
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(nil, config.LogConfig{Level: "loud", Format: "text"})
	require.Error(t, err)

	_, err = New(nil, config.LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}
