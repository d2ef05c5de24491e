// Package config resolves runtime settings from flags, the environment
// and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/cbot-lab/cbot/internal/llm"
	"github.com/cbot-lab/cbot/internal/store"
)

// Config is the resolved runtime configuration.
type Config struct {
	Store           store.Backend `validate:"oneof=sqlite redis memory"`
	DBPath          string        `validate:"required_if=Store sqlite"`
	RedisURL        string        `validate:"required_if=Store redis"`
	QuestionsPath   string
	AdminSecretHash string
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=text json"`
	LLM             llm.Config
}

// Overrides carries flag values. Empty fields do not override.
type Overrides struct {
	Store         string
	DBPath        string
	RedisURL      string
	QuestionsPath string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env (a missing file is fine), then CBOT_* variables, then
// applies overrides. The SQLite path defaults to the XDG data dir.
func Load(o Overrides) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return resolve(os.Getenv, o)
}

// resolve builds a Config from getenv and o without touching the
// process environment.
func resolve(getenv func(string) string, o Overrides) (Config, error) {
	cfg := Config{
		Store:           store.Backend(firstNonEmpty(o.Store, getenv("CBOT_STORE"), string(store.BackendSQLite))),
		DBPath:          firstNonEmpty(o.DBPath, getenv("CBOT_DB")),
		RedisURL:        firstNonEmpty(o.RedisURL, getenv("CBOT_REDIS_URL")),
		QuestionsPath:   firstNonEmpty(o.QuestionsPath, getenv("CBOT_QUESTIONS")),
		AdminSecretHash: getenv("CBOT_ADMIN_SECRET_HASH"),
		LogLevel:        strings.ToLower(firstNonEmpty(getenv("CBOT_LOG_LEVEL"), "info")),
		LogFormat:       strings.ToLower(firstNonEmpty(getenv("CBOT_LOG_FORMAT"), "text")),
	}

	if cfg.Store == store.BackendSQLite && cfg.DBPath == "" {
		p, err := store.DefaultDBPath(getenv)
		if err != nil {
			return Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}

	llmCfg, err := llmFromEnv(getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.LLM = llmCfg

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// llmFromEnv reads CBOT_LLM_*; without an explicit provider it falls back
// to the conventional *_API_KEY variables.
func llmFromEnv(getenv func(string) string) (llm.Config, error) {
	provider := strings.ToLower(getenv("CBOT_LLM_PROVIDER"))
	if provider == "" {
		if cfg, ok := llm.Discover(getenv); ok {
			cfg.Model = getenv("CBOT_LLM_MODEL")
			return cfg, nil
		}
		return llm.Config{}, nil
	}

	cfg := llm.Config{
		Provider: provider,
		APIKey:   getenv("CBOT_LLM_API_KEY"),
		Model:    getenv("CBOT_LLM_MODEL"),
		BaseURL:  getenv("CBOT_LLM_BASE_URL"),
		Retry:    llm.DefaultRetryPolicy(),
		Timeout:  60 * time.Second,
	}
	if t := getenv("CBOT_LLM_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return llm.Config{}, fmt.Errorf("CBOT_LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// StoreOptions returns the backend selection for store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{Backend: c.Store, DBPath: c.DBPath, RedisURL: c.RedisURL}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
