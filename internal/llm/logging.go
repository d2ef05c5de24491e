package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cbot-lab/cbot/internal/store"
)

// Recording logs every request with slog and appends it to an event
// repo. A failure to record is logged and never fails the request.
type Recording struct {
	inner    Provider
	provider string
	events   store.EventRepo
	logger   *slog.Logger
}

// WithRecording wraps p. events may be nil.
func WithRecording(p Provider, provider string, events store.EventRepo, logger *slog.Logger) *Recording {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recording{inner: p, provider: provider, events: events, logger: logger}
}

func (l *Recording) ModelID() string { return l.inner.ModelID() }

func (l *Recording) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	attrs := []any{
		"provider", l.provider,
		"model", ev.Model,
		"purpose", ev.Purpose,
		"latency", elapsed,
		"input_tokens", ev.InputTokens,
		"output_tokens", ev.OutputTokens,
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(attrs, "error", err)...)
	} else {
		l.logger.Debug("llm request", attrs...)
	}

	if l.events != nil {
		if recErr := l.events.AppendLLMRequest(ctx, ev); recErr != nil {
			l.logger.Warn("record llm request", "error", recErr)
		}
	}
	return resp, err
}

// transcript renders the prompt for the request log.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		fmt.Fprintf(&b, "[schema] %s\n", req.Schema.Name)
	}
	return b.String()
}
