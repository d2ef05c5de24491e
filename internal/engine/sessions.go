package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/selector"
	"github.com/cbot-lab/cbot/internal/session"
)

// EndMode says how EndSession should finish a session.
type EndMode int

const (
	EndSubmit EndMode = iota // examinee submitted
	EndExpire                // countdown reached zero
	EndCancel                // abandoned, no attempt recorded
)

func (m EndMode) String() string {
	switch m {
	case EndSubmit:
		return "submit"
	case EndExpire:
		return "expire"
	case EndCancel:
		return "cancel"
	}
	return fmt.Sprintf("end(%d)", int(m))
}

// StartSession selects questions for a pattern and starts a timed session
// for the crew member. A crew member can hold one running session at a
// time. A previous session that ran out of time without being ended is
// scored and recorded first.
func (e *Engine) StartSession(ctx context.Context, patternID, lobbyID, crewID string, seed uint64) (*session.Session, error) {
	p, err := e.Pattern(patternID)
	if err != nil {
		return nil, err
	}
	lobby, crew, err := e.examinee(lobbyID, crewID)
	if err != nil {
		return nil, err
	}

	if err := e.settle(ctx, crew.ID); err != nil {
		return nil, fmt.Errorf("start session for %s: %w", crew.MemberID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byCrew[crew.ID]; ok {
		return nil, fmt.Errorf("start session for %s: %w", crew.MemberID, ErrSessionActive)
	}
	if e.pool == nil {
		return nil, ErrNoPool
	}

	sel, err := selector.Select(p, e.pool, seed)
	if err != nil {
		return nil, err
	}

	s := session.New(e.newID(), sel, p.Duration(), e.clock)
	if err := s.Start(lobby, crew); err != nil {
		return nil, err
	}
	e.sessions[s.ID()] = &live{sess: s, pattern: p}
	e.byCrew[crew.ID] = s.ID()

	e.logger.Info("session started",
		"session_id", s.ID(),
		"pattern_id", p.ID,
		"crew_id", crew.ID,
		"lobby_id", lobby.ID,
		"questions", len(sel.Questions),
		"seed", sel.Seed,
		"budget", s.Budget())
	return s, nil
}

// settle ends the crew member's tracked session if it finished without
// EndSession being called. A running session is left alone.
func (e *Engine) settle(ctx context.Context, crewID string) error {
	e.mu.Lock()
	sid, ok := e.byCrew[crewID]
	var st session.State
	if ok {
		if l, tracked := e.sessions[sid]; tracked {
			st = l.sess.State()
		} else {
			delete(e.byCrew, crewID)
			ok = false
		}
	}
	e.mu.Unlock()
	if !ok {
		return nil
	}

	var err error
	switch st {
	case session.StateExpired:
		_, err = e.EndSession(ctx, sid, EndExpire)
	case session.StateSubmitted:
		_, err = e.EndSession(ctx, sid, EndSubmit)
	default:
		return nil
	}
	if err != nil && !IsNotFound(err) {
		return err
	}
	if err == nil {
		e.logger.Info("unfinished session recorded", "session_id", sid, "crew_id", crewID, "state", st)
	}
	return nil
}

func (e *Engine) examinee(lobbyID, crewID string) (roster.Lobby, roster.CrewMember, error) {
	var lobby roster.Lobby
	found := false
	for _, l := range e.cols.Lobbies.All() {
		if l.ID == lobbyID {
			lobby, found = l, true
			break
		}
	}
	if !found {
		return roster.Lobby{}, roster.CrewMember{}, fmt.Errorf("lobby %q: %w", lobbyID, ErrNotFound)
	}
	for _, c := range e.cols.Crew.All() {
		if c.ID == crewID && c.LobbyID == lobbyID {
			return lobby, c, nil
		}
	}
	return roster.Lobby{}, roster.CrewMember{}, fmt.Errorf("crew %q in lobby %q: %w", crewID, lobbyID, ErrNotFound)
}

// Session returns a tracked session.
func (e *Engine) Session(id string) (*session.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return l.sess, nil
}

// RecordAnswer records an answer in a running session.
func (e *Engine) RecordAnswer(sessionID, questionID string, opt question.Option) error {
	s, err := e.Session(sessionID)
	if err != nil {
		return err
	}
	return s.RecordAnswer(questionID, opt)
}

// ClearAnswer removes an answer from a running session.
func (e *Engine) ClearAnswer(sessionID, questionID string) error {
	s, err := e.Session(sessionID)
	if err != nil {
		return err
	}
	return s.ClearAnswer(questionID)
}

// EndSession finishes a session. Submitted and expired sessions are
// scored and the attempt is persisted; cancelled sessions return nil.
//
// A submit that arrives after the deadline records the attempt as
// expired. If persisting fails the session stays tracked, so EndSession
// can be called again.
func (e *Engine) EndSession(ctx context.Context, sessionID string, mode EndMode) (*scoring.TestAttempt, error) {
	e.mu.Lock()
	l, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}

	l.ending.Lock()
	defer l.ending.Unlock()
	if !e.tracked(l) {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	s := l.sess

	switch mode {
	case EndCancel:
		if err := s.Cancel(); err != nil {
			return nil, err
		}
		e.forget(s)
		e.logger.Info("session cancelled", "session_id", s.ID())
		return nil, nil
	case EndSubmit:
		if err := s.Submit(); err != nil && !s.State().Scorable() {
			return nil, err
		}
	case EndExpire:
		if st := s.Poll(); !st.Scorable() {
			return nil, &session.StateError{Op: "expire", State: st}
		}
	default:
		return nil, fmt.Errorf("end session: unknown mode %s", mode)
	}

	attempt := e.attemptFrom(l)
	err := e.cols.Attempts.Update(ctx, func(as []scoring.TestAttempt) ([]scoring.TestAttempt, error) {
		return append([]scoring.TestAttempt{attempt}, as...), nil
	})
	if err != nil {
		e.logger.Error("attempt not saved", "session_id", s.ID(), "error", err)
		return nil, err
	}
	e.forget(s)

	e.logger.Info("attempt recorded",
		"attempt_id", attempt.ID,
		"session_id", s.ID(),
		"pattern_id", attempt.PatternID,
		"crew_id", attempt.CrewID,
		"end_reason", attempt.EndReason,
		"score", attempt.Score,
		"total", attempt.TotalPossible)
	return &attempt, nil
}

func (e *Engine) attemptFrom(l *live) scoring.TestAttempt {
	s := l.sess
	reason := scoring.EndSubmitted
	if s.State() == session.StateExpired {
		reason = scoring.EndExpired
	}
	lobby, crew := s.Examinee()
	return scoring.NewAttempt(scoring.AttemptInput{
		ID:           s.ID(),
		PatternTitle: l.pattern.Title,
		Selection:    s.Selection(),
		Answers:      s.Answers(),
		Lobby:        lobby,
		Crew:         crew,
		CompletedAt:  s.EndedAt(),
		EndReason:    reason,
	})
}

func (e *Engine) tracked(l *live) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[l.sess.ID()] == l
}

func (e *Engine) forget(s *session.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, s.ID())
	_, crew := s.Examinee()
	if e.byCrew[crew.ID] == s.ID() {
		delete(e.byCrew, crew.ID)
	}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
