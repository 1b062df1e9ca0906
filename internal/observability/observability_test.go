package observability

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "json").Info("raster processed", "month", 3)
	assert.Contains(t, buf.String(), `"month":3`)

	buf.Reset()
	newLogger(&buf, "info", "text").Info("raster processed", "month", 3)
	assert.Contains(t, buf.String(), "month=3")

	buf.Reset()
	newLogger(&buf, "warn", "text").Info("hidden")
	assert.Empty(t, buf.String())
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.CoverageGaps.Add(3)
	m.ScaleFactor.WithLabelValues("01").Set(0.1)

	assert.InDelta(t, 3.0, testutil.ToFloat64(m.CoverageGaps), 1e-12)
	assert.InDelta(t, 0.1, testutil.ToFloat64(m.ScaleFactor.WithLabelValues("01")), 1e-12)
}

func TestWriteTextfile(t *testing.T) {
	require.NoError(t, WriteTextfile(""))

	path := filepath.Join(t.TempDir(), "tempzonal.prom")
	require.NoError(t, WriteTextfile(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
