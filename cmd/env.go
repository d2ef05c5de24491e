package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbot-lab/cbot/internal/auth"
	"github.com/cbot-lab/cbot/internal/config"
	"github.com/cbot-lab/cbot/internal/engine"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/store"
)

// env is what most commands work against: the resolved configuration,
// the open store and an engine loaded from it.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	backing store.Backing
	eng     *engine.Engine
}

// openEnv resolves configuration from flags and the environment, opens
// the store and loads the engine. The question bank is loaded when one
// is configured.
func openEnv(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	var o config.Overrides
	o.Store, _ = flags.GetString("store")
	o.DBPath, _ = flags.GetString("db")
	o.RedisURL, _ = flags.GetString("redis-url")
	o.QuestionsPath, _ = flags.GetString("questions")

	cfg, err := config.Load(o)
	if err != nil {
		return nil, err
	}
	if cfg.Store == store.BackendSQLite {
		if err := store.EnsureDir(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("prepare database directory: %w", err)
		}
	}
	logger := cfg.Logger(os.Stderr)

	ctx := cmd.Context()
	backing, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	eng, err := engine.Open(ctx, backing, engine.Options{Logger: logger})
	if err != nil {
		backing.Close()
		return nil, fmt.Errorf("load collections: %w", err)
	}

	if cfg.QuestionsPath != "" {
		qs, err := question.LoadFile(cfg.QuestionsPath)
		if err != nil {
			backing.Close()
			return nil, err
		}
		if err := eng.LoadPool(qs); err != nil {
			backing.Close()
			return nil, err
		}
		logger.Debug("question bank loaded", "path", cfg.QuestionsPath, "questions", len(qs))
	}

	return &env{cfg: cfg, logger: logger, backing: backing, eng: eng}, nil
}

func (e *env) Close() error {
	return e.backing.Close()
}

// requireAdmin checks the administrator secret from --admin-secret or
// CBOT_ADMIN_SECRET against the configured hash.
func (e *env) requireAdmin(cmd *cobra.Command) error {
	secret, _ := cmd.Flags().GetString("admin-secret")
	if secret == "" {
		secret = os.Getenv("CBOT_ADMIN_SECRET")
	}
	if err := auth.NewGate(e.cfg.AdminSecretHash).Require(secret); err != nil {
		return fmt.Errorf("%w (set CBOT_ADMIN_SECRET_HASH with `cbot admin hash-secret`, then pass --admin-secret)", err)
	}
	return nil
}

// requirePool fails when no question bank was configured.
func (e *env) requirePool() error {
	if e.eng.Pool() == nil {
		return fmt.Errorf("%w: pass --questions or set CBOT_QUESTIONS", engine.ErrNoPool)
	}
	return nil
}
