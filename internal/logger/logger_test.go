package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("run_id", "r1").Info("batch committed", "batch", 2, "edges", 5)
	l.Warn("classification failed", "pair", "a|b")

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "batch committed", first.Message)
	assert.Equal(t, "r1", first.ContextMap()["run_id"])
	assert.EqualValues(t, 2, first.ContextMap()["batch"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "run_id")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Debug("ignored")
	l.With("k", "v").Error("ignored")
	l.Sync()
}
