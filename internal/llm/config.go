package llm

import (
	"fmt"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// defaultModels is used when Config.Model is empty.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku-4-5-20251001",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
	ProviderGemini:     "gemini-2.0-flash",
	ProviderMock:       "mock",
}

// Config selects one provider. An empty Provider disables LLM features.
type Config struct {
	Provider string `validate:"omitempty,oneof=anthropic openai openrouter gemini mock"`
	APIKey   string
	Model    string
	BaseURL  string `validate:"omitempty,url"`
	Retry    RetryPolicy
	Timeout  time.Duration `validate:"gte=0"`
}

// RetryPolicy controls exponential backoff for transient failures.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy is three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != ""
}

// ModelOrDefault returns the configured model or the provider default.
func (c Config) ModelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// Validate checks that the selected provider can be constructed.
func (c Config) Validate() error {
	switch c.Provider {
	case "":
		return ErrNotConfigured
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("llm: an API key is required for the %s provider (set CBOT_LLM_API_KEY)", c.Provider)
		}
		return nil
	}
	return fmt.Errorf("llm: unknown provider %q", c.Provider)
}

// discoveryOrder lists the conventional API key variables probed by
// Discover, highest priority first.
var discoveryOrder = []struct {
	env      string
	provider string
}{
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// Discover picks the first provider whose conventional API key variable
// is set. It returns false when none is.
func Discover(getenv func(string) string) (Config, bool) {
	for _, d := range discoveryOrder {
		if k := getenv(d.env); k != "" {
			return Config{Provider: d.provider, APIKey: k, Retry: DefaultRetryPolicy(), Timeout: 60 * time.Second}, true
		}
	}
	return Config{}, false
}
