package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbot-lab/cbot/internal/llm"
	"github.com/cbot-lab/cbot/internal/store"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_Defaults(t *testing.T) {
	data := t.TempDir()
	t.Setenv("CBOT_DB", "/process/env.db")

	cfg, err := resolve(env(map[string]string{"XDG_DATA_HOME": data}), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, cfg.Store)
	assert.Equal(t, filepath.Join(data, "cbot", "cbot.db"), cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.LLM.Enabled())
}

func TestResolve_FlagsOverrideEnv(t *testing.T) {
	e := env(map[string]string{
		"CBOT_STORE":     "redis",
		"CBOT_REDIS_URL": "redis://env:6379/0",
		"CBOT_QUESTIONS": "env.json",
		"CBOT_DB":        "/env/cbot.db",
	})

	cfg, err := resolve(e, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, store.BackendRedis, cfg.Store)
	assert.Equal(t, "redis://env:6379/0", cfg.RedisURL)

	cfg, err = resolve(e, Overrides{Store: "sqlite", DBPath: "/flag/x.db", QuestionsPath: "flag.json"})
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, cfg.Store)
	assert.Equal(t, "/flag/x.db", cfg.DBPath)
	assert.Equal(t, "flag.json", cfg.QuestionsPath)
	assert.Equal(t, store.Options{Backend: store.BackendSQLite, DBPath: "/flag/x.db", RedisURL: "redis://env:6379/0"}, cfg.StoreOptions())
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"redis without url", map[string]string{"CBOT_STORE": "redis"}},
		{"unknown backend", map[string]string{"CBOT_STORE": "etcd", "CBOT_DB": "x"}},
		{"bad log level", map[string]string{"CBOT_DB": "x", "CBOT_LOG_LEVEL": "loud"}},
		{"bad llm provider", map[string]string{"CBOT_DB": "x", "CBOT_LLM_PROVIDER": "llama"}},
		{"bad llm timeout", map[string]string{"CBOT_DB": "x", "CBOT_LLM_PROVIDER": "mock", "CBOT_LLM_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(env(tt.env), Overrides{})
			require.Error(t, err)
		})
	}
}

func TestResolve_LLM(t *testing.T) {
	cfg, err := resolve(env(map[string]string{
		"CBOT_DB":           "x",
		"CBOT_LLM_PROVIDER": "OpenAI",
		"CBOT_LLM_API_KEY":  "sk-1",
		"CBOT_LLM_MODEL":    "gpt-4.1-mini",
		"CBOT_LLM_TIMEOUT":  "15s",
	}), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-1", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.ModelOrDefault())
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)

	cfg, err = resolve(env(map[string]string{"CBOT_DB": "x", "ANTHROPIC_API_KEY": "a"}), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	Config{LogLevel: "debug", LogFormat: "json"}.Logger(&buf).Debug("shown", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	Config{LogLevel: "info", LogFormat: "text"}.Logger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
