package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chesstral/internal/core"
	"chesstral/internal/engine"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.False(t, cfg.Dev)
	assert.Empty(t, cfg.StoragePath)
	assert.Equal(t, engine.DefaultBaseURL, cfg.EngineURL)
	assert.Equal(t, engine.DefaultTimeout, cfg.EngineTimeout)
	assert.Equal(t, core.DefaultEngine(), cfg.Engine)
	assert.Equal(t, 18, cfg.EvalDepth)
	assert.True(t, cfg.AutoEvaluate)
	assert.False(t, cfg.ContextOptIn)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	cfg, err := Parse(nil, envMap(map[string]string{
		"CHESSTRAL_API_PORT":      "9000",
		"CHESSTRAL_DEV":           "true",
		"CHESSTRAL_ENGINE_URL":    "http://engine:8000",
		"CHESSTRAL_TASK_TIMEOUT":  "2m",
		"CHESSTRAL_ENGINE_TYPE":   "stockfish",
		"CHESSTRAL_ENGINE_MODEL":  "",
		"CHESSTRAL_TEMPERATURE":   "0.5",
		"CHESSTRAL_AUTO_EVALUATE": "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.True(t, cfg.Dev)
	assert.Equal(t, "http://engine:8000", cfg.EngineURL)
	assert.Equal(t, 2*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, "stockfish", cfg.Engine.Type)
	// empty variables fall back to the default
	assert.Equal(t, core.DefaultEngineModel, cfg.Engine.Model)
	assert.InDelta(t, 0.5, cfg.Engine.Temperature, 1e-9)
	assert.False(t, cfg.AutoEvaluate)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := Parse(
		[]string{"-api-port", "7000", "-eval-depth", "12", "-context"},
		envMap(map[string]string{"CHESSTRAL_API_PORT": "9000", "CHESSTRAL_EVAL_DEPTH": "20"}),
	)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.APIPort)
	assert.Equal(t, 12, cfg.EvalDepth)
	assert.True(t, cfg.ContextOptIn)
}

func TestBadEnvironmentValues(t *testing.T) {
	_, err := Parse(nil, envMap(map[string]string{
		"CHESSTRAL_API_PORT": "eighty",
		"CHESSTRAL_DEV":      "sometimes",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHESSTRAL_API_PORT")
	assert.Contains(t, err.Error(), "CHESSTRAL_DEV")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"port", []string{"-api-port", "70000"}, "api-port"},
		{"temperature", []string{"-temperature", "1.5"}, "temperature"},
		{"depth", []string{"-eval-depth", "0"}, "eval-depth"},
		{"workers", []string{"-workers", "0"}, "workers"},
		{"engine", []string{"-engine", ""}, "engine type"},
		{"timeout", []string{"-engine-timeout", "0s"}, "timeouts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, envMap(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"-nope"}, envMap(nil))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHESSTRAL_OPENING_DIR=/srv/eco\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CHESSTRAL_OPENING_DIR") })

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/eco", cfg.OpeningDir)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, dev := range []bool{true, false} {
		logger, err := NewLogger(dev)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
