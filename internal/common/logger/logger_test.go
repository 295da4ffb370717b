package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAreCarried(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.With(map[string]interface{}{"provider": "sws"}).
		Warn("facet failed", map[string]interface{}{"action": "GET_LUBRICANTS", "vrm": "YM14NFL"})

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "facet failed", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "sws", ctx["provider"])
	assert.Equal(t, "GET_LUBRICANTS", ctx["action"])
	assert.Equal(t, "YM14NFL", ctx["vrm"])
}

func TestZapWrapper_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithError(assert.AnError).Error("boom", nil)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, assert.AnError.Error(), entries[0].ContextMap()["error"])
}

func TestNew_LevelFiltering(t *testing.T) {
	l := New("warn", "json")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
