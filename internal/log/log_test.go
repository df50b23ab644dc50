package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info", "json")
	t.Cleanup(func() { Configure("info", "console") })

	Info("render completed", "id", "tl", "events", 3, "dangling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "render completed", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "tl", line["id"])
	assert.EqualValues(t, 3, line["events"])
	assert.NotContains(t, line, "dangling")
}

func TestErrorIncludesErr(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug", "json")
	t.Cleanup(func() { Configure("info", "console") })

	Error("fetch failed", errors.New("boom"), "url", "https://example.com/...(redacted)")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info", "json")
	t.Cleanup(func() { Configure("info", "console") })

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("shown")
	assert.True(t, strings.Contains(buf.String(), "shown"))
}
