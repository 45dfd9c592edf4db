package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComponentLevels(t *testing.T) {
	levels, err := ParseComponentLevels(" memory=debug, store=WARN ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]log.Level{"memory": log.DebugLevel, "store": log.WarnLevel}, levels)

	levels, err = ParseComponentLevels("")
	require.NoError(t, err)
	assert.Empty(t, levels)

	_, err = ParseComponentLevels("memory")
	assert.Error(t, err)
	_, err = ParseComponentLevels("memory=loud")
	assert.Error(t, err)
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = New(&buf, "chatty")
	assert.Error(t, err)
}

func TestFactory_ForComponent(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(&buf, "info")
	require.NoError(t, err)
	f := NewFactory(base, map[string]log.Level{"memory": log.DebugLevel})

	mem := f.ForComponent("memory")
	assert.Same(t, mem, f.ForComponent("memory"))

	mem.Debug("memory detail")
	f.ForComponent("store").Debug("store detail")

	out := buf.String()
	assert.Contains(t, out, "memory detail")
	assert.Contains(t, out, "component=memory")
	assert.NotContains(t, out, "store detail")
}
