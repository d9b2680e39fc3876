package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"":        Info,
		"INFO":    Info,
		"warning": Warn,
		" error ": Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("console"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestZapLogger_WithAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(map[string]any{"component": "scheduler"})

	l.Warn("channel disabled", map[string]any{
		"channel": "email",
		"err":     errors.New("missing from"),
		"":        "ignored",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "channel disabled", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "scheduler", ctx["component"])
	assert.Equal(t, "email", ctx["channel"])
	assert.Equal(t, "missing from", ctx["err"])
	assert.NotContains(t, ctx, "")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing", nil)
	assert.Same(t, l, l.With(nil))
}
