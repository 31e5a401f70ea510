package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	SetLevel("WARN")
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	SetLevel("verbose")
	assert.Equal(t, zapcore.WarnLevel, level.Level(), "unknown names keep the current level")
}

func TestNopLoggerAcceptsKeyValues(t *testing.T) {
	l := NewNop().With("run_id", "r1")
	l.Info("message", "path", "a.png")
	l.Warn("odd number of values", "path")
	l.Sync()
}
