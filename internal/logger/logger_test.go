package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/tabval/internal/logger"
)

func TestNew_JSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithAttr(logger.Component("test")),
		logger.WithAttr(logger.RunID("r-1")),
	)

	log.Info("hello", logger.Field("b"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"component":"test"`)
	assert.Contains(t, out, `"run_id":"r-1"`)
	assert.Contains(t, out, `"field":"b"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText), logger.WithLevel(slog.LevelWarn))

	log.Info("quiet")
	assert.Empty(t, buf.String())
	log.Warn("loud")
	assert.Contains(t, buf.String(), "msg=loud")
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}

func TestParseLevel(t *testing.T) {
	l, err := logger.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)

	l, err = logger.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = logger.ParseLevel("loud")
	require.Error(t, err)
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}
