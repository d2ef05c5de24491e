package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cbot-lab/cbot/internal/store"
)

// New builds the configured provider wrapped as
// caller -> retry -> recording -> provider, so every attempt is logged.
func New(ctx context.Context, cfg Config, events store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropic(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAI(cfg)
	case ProviderOpenRouter:
		base, err = NewOpenRouter(cfg)
	case ProviderGemini:
		base, err = NewGemini(ctx, cfg)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithRecording(base, cfg.Provider, events, logger), cfg.Retry), nil
}
