package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	conf, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreFile, conf.Store)
	assert.Equal(t, "json", conf.FileFormat)
	assert.Equal(t, 20, conf.MemoryCategoryCap)
	assert.Equal(t, 100, conf.MemoryGlobalCap)
	assert.Equal(t, 5*time.Minute, conf.ConsolidationInterval)
	assert.False(t, conf.VoiceModulation)
	assert.False(t, conf.CompletionsEnabled())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMPANION_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MEMORY_CATEGORY_CAP", "5")
	t.Setenv("CONSOLIDATION_INTERVAL", "30s")
	t.Setenv("VOICE_MODULATION", "true")
	t.Setenv("RAND_SEED", "1234")
	t.Setenv("COMPLETIONS_API_URL", "http://localhost:11434/v1")

	conf, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, conf.Store)
	assert.Equal(t, 3, conf.RedisDB)
	assert.Equal(t, 5, conf.MemoryCategoryCap)
	assert.Equal(t, 30*time.Second, conf.ConsolidationInterval)
	assert.True(t, conf.VoiceModulation)
	assert.Equal(t, int64(1234), conf.RandSeed)
	assert.True(t, conf.CompletionsEnabled())
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "companion.env")
	require.NoError(t, os.WriteFile(path, []byte("COMPANION_PERSONA=tsundere\nCOMPANION_FILE_FORMAT=yaml\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("COMPANION_PERSONA")
		os.Unsetenv("COMPANION_FILE_FORMAT")
	})

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tsundere", conf.Persona)
	assert.Equal(t, "yaml", conf.FileFormat)

	_, err = LoadConfig(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"REDIS_DB", "zero", "REDIS_DB"},
		{"CONSOLIDATION_INTERVAL", "soon", "CONSOLIDATION_INTERVAL"},
		{"VOICE_MODULATION", "maybe", "VOICE_MODULATION"},
		{"COMPANION_STORE", "postgres", "COMPANION_STORE"},
		{"COMPANION_FILE_FORMAT", "xml", "COMPANION_FILE_FORMAT"},
		{"MEMORY_GLOBAL_CAP", "0", "memory caps"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
