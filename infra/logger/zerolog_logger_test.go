package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": 2})
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLogger_FieldsAndComponent(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)
	require.NoError(t, SetLevel("info"))

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "optimize")
	l.Debugf("hidden")
	l.Infow("optimize completed", map[string]any{"horizon": 24, "backend": "milp"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "optimize", got["component"])
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "milp", got["backend"])
	assert.Equal(t, float64(24), got["horizon"])
}

func TestSetLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)
	assert.NoError(t, SetLevel(""))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.NoError(t, SetLevel("DEBUG"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Error(t, SetLevel("chatty"))
}
