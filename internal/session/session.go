// Package session runs one timed attempt: it holds the selected questions,
// captures answers while the countdown runs and decides when the attempt
// has ended.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/selector"
)

// ErrUnknownQuestion is returned when an answer names a question that is
// not part of the session's selection.
var ErrUnknownQuestion = errors.New("question not in session")

// ErrInvalidOption is returned for an answer outside A-D.
var ErrInvalidOption = errors.New("invalid answer option")

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Session is a single examinee's attempt in progress. All methods are safe
// for concurrent use; each mutation is an atomic read-modify-write.
type Session struct {
	mu sync.Mutex

	id        string
	selection *selector.Selection
	budget    time.Duration
	clock     Clock
	known     map[string]bool

	state     State
	lobby     roster.Lobby
	crew      roster.CrewMember
	startedAt time.Time
	endedAt   time.Time
	answers   map[string]question.Option
}

// New creates a session over sel with the given time budget. A nil clock
// uses time.Now.
func New(id string, sel *selector.Selection, budget time.Duration, clock Clock) *Session {
	if clock == nil {
		clock = time.Now
	}
	known := make(map[string]bool, len(sel.Questions))
	for _, q := range sel.Questions {
		known[q.ID] = true
	}
	return &Session{
		id:        id,
		selection: sel,
		budget:    budget,
		clock:     clock,
		known:     known,
		state:     StateNotStarted,
		answers:   make(map[string]question.Option),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Selection returns the questions and allocations the session runs over.
func (s *Session) Selection() *selector.Selection { return s.selection }

// Budget returns the total time allowed.
func (s *Session) Budget() time.Duration { return s.budget }

// Start begins the countdown for the given examinee.
func (s *Session) Start(lobby roster.Lobby, crew roster.CrewMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return &StateError{Op: "start", State: s.state}
	}
	s.lobby = lobby
	s.crew = crew
	s.startedAt = s.clock()
	s.state = StateInProgress
	return nil
}

// RecordAnswer sets or replaces the answer for qid. Answers arriving after
// the budget has elapsed are refused and the session moves to Expired.
func (s *Session) RecordAnswer(qid string, opt question.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollLocked()
	if s.state != StateInProgress {
		return &StateError{Op: "record answer", State: s.state}
	}
	if !s.known[qid] {
		return fmt.Errorf("record answer %q: %w", qid, ErrUnknownQuestion)
	}
	if !opt.Valid() {
		return fmt.Errorf("record answer %q: %w: %q", qid, ErrInvalidOption, string(opt))
	}
	s.answers[qid] = opt
	return nil
}

// ClearAnswer removes the answer for qid, leaving it unanswered.
func (s *Session) ClearAnswer(qid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollLocked()
	if s.state != StateInProgress {
		return &StateError{Op: "clear answer", State: s.state}
	}
	if !s.known[qid] {
		return fmt.Errorf("clear answer %q: %w", qid, ErrUnknownQuestion)
	}
	delete(s.answers, qid)
	return nil
}

// Poll checks the clock and moves an in-progress session to Expired once
// the budget has elapsed. It is idempotent and returns the resulting state.
func (s *Session) Poll() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollLocked()
}

func (s *Session) pollLocked() State {
	if s.state == StateInProgress {
		if deadline := s.startedAt.Add(s.budget); !s.clock().Before(deadline) {
			s.state = StateExpired
			s.endedAt = deadline
		}
	}
	return s.state
}

// Submit ends the attempt at the examinee's request. If the budget ran out
// first the session ends as Expired instead and a *StateError is returned.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollLocked()
	if s.state != StateInProgress {
		return &StateError{Op: "submit", State: s.state}
	}
	s.state = StateSubmitted
	s.endedAt = s.clock()
	return nil
}

// Cancel abandons the session. A session may be cancelled before it
// starts or while it is running.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollLocked()
	if s.state.Terminal() {
		return &StateError{Op: "cancel", State: s.state}
	}
	s.state = StateCancelled
	s.endedAt = s.clock()
	return nil
}

// State returns the current state after polling the clock.
func (s *Session) State() State {
	return s.Poll()
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() map[string]question.Option {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]question.Option, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Answer returns the recorded answer for qid, if any.
func (s *Session) Answer(qid string) (question.Option, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.answers[qid]
	return opt, ok
}

// Remaining returns the time left on the countdown. It is the full budget
// before Start and zero once the session has ended.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Session) remainingLocked() time.Duration {
	switch s.pollLocked() {
	case StateNotStarted:
		return s.budget
	case StateInProgress:
		if left := s.startedAt.Add(s.budget).Sub(s.clock()); left > 0 {
			return left
		}
	}
	return 0
}

// Progress returns a consistent snapshot of state, answer count and time left.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	left := s.remainingLocked()
	return Progress{
		State:     s.state,
		Answered:  len(s.answers),
		Total:     len(s.selection.Questions),
		Remaining: left,
	}
}

// Examinee returns the lobby and crew member the session was started for.
func (s *Session) Examinee() (roster.Lobby, roster.CrewMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobby, s.crew
}

// EndedAt returns when the session reached a terminal state. For an
// expired session this is the deadline, not the moment expiry was noticed.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}
