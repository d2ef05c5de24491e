package debrief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cbot-lab/cbot/internal/llm"
	"github.com/cbot-lab/cbot/internal/scoring"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("debrief: no LLM provider configured")

// Service generates debriefs. A nil provider makes every call fail with
// ErrUnavailable.
type Service struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending *Debrief
	err     error
	ready   bool
}

// NewService creates a debrief service.
func NewService(provider llm.Provider, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{provider: provider, cfg: cfg, logger: logger, now: time.Now}
}

// Available reports whether a provider is configured.
func (s *Service) Available() bool {
	return s != nil && s.provider != nil
}

type debriefOutput struct {
	Summary string      `json:"summary"`
	Topics  []TopicNote `json:"topics"`
}

// Generate produces the debrief for a. A perfect attempt needs no model
// call and gets a fixed summary.
func (s *Service) Generate(ctx context.Context, a scoring.TestAttempt) (*Debrief, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	missed := MissedQuestions(a)
	d := &Debrief{AttemptID: a.ID, Missed: missed, GeneratedAt: s.now()}
	if len(missed) == 0 {
		d.Summary = "Every question was answered correctly."
		d.Topics = []TopicNote{}
		return d, nil
	}

	prompt := missed
	if s.cfg.MaxMissed > 0 && len(prompt) > s.cfg.MaxMissed {
		prompt = prompt[:s.cfg.MaxMissed]
	}

	ctx = llm.WithPurpose(ctx, "debrief")
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(a, prompt)},
		},
		Schema:      DebriefSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("debrief generation: %w", err)
	}

	var out debriefOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse debrief response: %w", err)
	}

	d.Summary = out.Summary
	d.Topics = keepKnownTopics(out.Topics, missed)
	d.Model = resp.Model
	s.logger.Debug("debrief generated", "attempt_id", a.ID, "topics", len(d.Topics), "missed", len(missed))
	return d, nil
}

// Request starts generation in the background. A newer request replaces
// any result not yet consumed.
func (s *Service) Request(ctx context.Context, a scoring.TestAttempt) {
	go func() {
		d, err := s.Generate(ctx, a)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending = d
		s.err = err
		s.ready = true
	}()
}

// Result is the outcome of a background request.
type Result struct {
	Debrief *Debrief
	Err     error
}

// Consume returns the background result once it is ready, clearing the
// slot. It returns false while generation is still running.
func (s *Service) Consume() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return Result{}, false
	}
	r := Result{Debrief: s.pending, Err: s.err}
	s.pending, s.err, s.ready = nil, nil, false
	return r, true
}

// MissedQuestions lists the wrong and unanswered questions of a in
// presentation order.
func MissedQuestions(a scoring.TestAttempt) []Missed {
	var out []Missed
	for _, q := range a.Questions {
		chosen, answered := a.Answers[q.ID]
		if answered && q.IsCorrect(chosen) {
			continue
		}
		out = append(out, Missed{
			QuestionID:    q.ID,
			Topic:         strings.TrimSpace(q.Topic),
			Text:          q.Text,
			Chosen:        chosen,
			Correct:       q.CorrectAnswer,
			PageReference: q.PageReference,
		})
	}
	return out
}

// keepKnownTopics drops notes for topics that were not in the prompt and
// page references the model invented, then sorts by topic.
func keepKnownTopics(notes []TopicNote, missed []Missed) []TopicNote {
	pages := make(map[string]map[string]bool)
	for _, m := range missed {
		topic := m.Topic
		if topic == "" {
			topic = "General"
		}
		if pages[topic] == nil {
			pages[topic] = make(map[string]bool)
		}
		if m.PageReference != "" {
			pages[topic][m.PageReference] = true
		}
	}

	out := make([]TopicNote, 0, len(notes))
	for _, n := range notes {
		known, ok := pages[n.Topic]
		if !ok {
			continue
		}
		kept := make([]string, 0, len(n.Pages))
		for _, p := range n.Pages {
			if known[p] {
				kept = append(kept, p)
			}
		}
		n.Pages = kept
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}
