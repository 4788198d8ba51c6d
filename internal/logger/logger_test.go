package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_WritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithFields(map[string]interface{}{"activity": "vehiculos"}).
		Info("generated", map[string]interface{}{"artifacts": 1})
	log.WithError(fmt.Errorf("boom")).Error("failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "vehiculos", ctx["activity"])
		assert.EqualValues(t, 1, ctx["artifacts"])
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
}

func TestNew_LevelParsing(t *testing.T) {
	l := New("warn", "json")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	d := New("debug", "console")
	assert.True(t, d.Core().Enabled(zapcore.DebugLevel))
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().Info("ignored", map[string]interface{}{"k": "v"})
	NewTestLogger(t).Debug("visible in -v output", nil)
}
