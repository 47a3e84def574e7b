package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutToFile(t *testing.T) {
	t.Cleanup(func() { level.Set(slog.LevelInfo) })
	require.NoError(t, SetLevel("debug"))

	var term bytes.Buffer
	file := filepath.Join(t.TempDir(), "cnl.log")
	logger, closer, err := New(Options{Terminal: &term, File: file})
	require.NoError(t, err)

	logger.DebugContext(WithRequest(context.Background(), "r-1"), "predicted", "paths", 2)
	require.NoError(t, closer.Close())

	assert.Contains(t, term.String(), "msg=predicted")
	assert.Contains(t, term.String(), "request=r-1")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "predicted", rec["msg"])
	assert.Equal(t, "r-1", rec["request"])
	assert.Equal(t, float64(2), rec["paths"])
}

func TestLevelFilters(t *testing.T) {
	t.Cleanup(func() { level.Set(slog.LevelInfo) })
	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, slog.LevelWarn, Level())

	var term bytes.Buffer
	logger, _, err := New(Options{Terminal: &term})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.With("k", "v").Warn("shown")
	assert.NotContains(t, term.String(), "hidden")
	assert.True(t, strings.Contains(term.String(), "shown") && strings.Contains(term.String(), "k=v"))
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	assert.Error(t, SetLevel("loud"))
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "STEP_BUDGET", toJournalKey("step.budget"))
	assert.Equal(t, "REQUEST", toJournalKey("request"))
}
