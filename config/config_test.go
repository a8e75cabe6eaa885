// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Uses map-backed lookups and temp .env files instead of the real environment
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/synchro/cadence"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "local", cfg.LocalUserID)
	assert.Equal(t, 20*time.Second, cfg.DraftTimeout)
	assert.Equal(t, cadence.StrategyProportional, cfg.JitterStrategy)
	assert.Equal(t, 5, cfg.UniformJitterDays)
	assert.Equal(t, 30, cfg.BaselineIntervalDays)
	assert.True(t, strings.HasSuffix(cfg.DBPath, filepath.Join("synchro", "synchro.db")))
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"SYNCHRO_DB_PATH":                "/tmp/x.db",
		"SYNCHRO_JWT_SECRET":             "s3cret",
		"SYNCHRO_TOKEN_TTL":              "10080",
		"SYNCHRO_DRAFT_TIMEOUT":          "5s",
		"SYNCHRO_JITTER_STRATEGY":        "uniform",
		"SYNCHRO_UNIFORM_JITTER_DAYS":    "2",
		"SYNCHRO_BASELINE_INTERVAL_DAYS": "21",
		"SYNCHRO_EXTENDED_STAGES":        "true",
		"SYNCHRO_LOG_LEVEL":              "debug",
		"SYNCHRO_OPENAI_MODEL":           "  ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL, "bare numbers are minutes")
	assert.Equal(t, 5*time.Second, cfg.DraftTimeout)
	assert.Equal(t, 2, cfg.UniformJitterDays)
	assert.True(t, cfg.ExtendedStages)
	assert.Empty(t, cfg.OpenAIModel, "blank values are ignored")
	require.NoError(t, cfg.ValidateServer())

	calc, err := cfg.Calculator()
	require.NoError(t, err)
	assert.Equal(t, cadence.StrategyUniform, calc.Strategy().Name())

	p := cfg.Catalog().Resolve("Daily", nil)
	assert.Equal(t, 1, p.IntervalDays)
	assert.Equal(t, 21, cfg.Catalog().Resolve("Someday", nil).IntervalDays)
}

func TestFromEnvRejectsMalformedNumbers(t *testing.T) {
	for key, value := range map[string]string{
		"SYNCHRO_UNIFORM_JITTER_DAYS": "five",
		"SYNCHRO_EXTENDED_STAGES":     "maybe",
		"SYNCHRO_DRAFT_TIMEOUT":       "soon",
	} {
		_, err := FromEnv(lookupFrom(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.JitterStrategy = "gaussian"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.BaselineIntervalDays = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateServer(), "serving needs a JWT secret")
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SYNCHRO_HTTP_ADDR=:9999\n"), 0600))
	t.Setenv("SYNCHRO_HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("SYNCHRO_HTTP_ADDR"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoggerLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
