// ABOUTME: Tests for the console and JSON log handlers
// ABOUTME: Covers level filtering, the win tag, attrs, groups, and JSON output

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/giveaway-watcher/internal/config"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestColorHandler_Levels(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.Info("connecting to gateway", "session", "Bot 1")
	logger.Warn("connection closed")
	logger.Error("session exited")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF connecting to gateway session=Bot 1")
	assert.Contains(t, out, "WRN connection closed")
	assert.Contains(t, out, "ERR session exited")
}

func TestColorHandler_WinTag(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info"}, &buf)

	logger.With("session", "alice").Info("won a giveaway", "event", "win", "channel_id", "c1")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "WIN won a giveaway")
	assert.NotContains(t, line, "INF")
	assert.Contains(t, line, "session=alice")
	assert.Contains(t, line, "channel_id=c1")
}

func TestColorHandler_Groups(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug"}, &buf)

	logger.WithGroup("http").With("route", "/").Debug("request", "status", 200)

	assert.Contains(t, buf.String(), "DBG request http.route=/ http.status=200")
}

func TestColorHandler_ConcurrentWrites(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info"}, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := logger.With("worker", i)
			for j := 0; j < 50; j++ {
				l.Info("tick")
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 400)
	for _, line := range lines {
		assert.Contains(t, line, "INF tick worker=")
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("connection closed", "session", "Bot 2")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "connection closed", rec["msg"])
	assert.Equal(t, "Bot 2", rec["session"])
}
