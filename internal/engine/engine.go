// Package engine is the façade the CLI and TUI call into. It owns the
// persisted collections, the question pool and the live sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/pool"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/selector"
	"github.com/cbot-lab/cbot/internal/session"
	"github.com/cbot-lab/cbot/internal/store"
)

var (
	// ErrNotFound is returned when an id names nothing.
	ErrNotFound = errors.New("not found")
	// ErrSessionActive is returned when a crew member already has a
	// running session.
	ErrSessionActive = errors.New("crew member already has an active session")
	// ErrNoPool is returned when selection is attempted before a question
	// bank is loaded.
	ErrNoPool = errors.New("no question pool loaded")
)

// Options configures an Engine. Zero values pick defaults.
type Options struct {
	Logger *slog.Logger
	Clock  session.Clock
	NewID  func() string
}

// Engine ties the stores, pool, selector, sessions and scorer together.
// It is safe for concurrent use.
type Engine struct {
	cols   *store.Collections
	logger *slog.Logger
	clock  session.Clock
	newID  func() string

	mu       sync.Mutex
	pool     *pool.Index
	sessions map[string]*live
	byCrew   map[string]string
}

// live is a session the engine is tracking until it is ended. ending
// serializes EndSession calls so an attempt is recorded once.
type live struct {
	sess    *session.Session
	pattern pattern.ExamPattern
	ending  sync.Mutex
}

// New returns an engine over already loaded collections.
func New(cols *store.Collections, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		cols:     cols,
		logger:   opts.Logger,
		clock:    opts.Clock,
		newID:    opts.NewID,
		sessions: make(map[string]*live),
		byCrew:   make(map[string]string),
	}
}

// Open loads every collection from kv and returns an engine over them.
func Open(ctx context.Context, kv store.KV, opts Options) (*Engine, error) {
	cols := store.NewCollections(kv, opts.Logger)
	if err := cols.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return New(cols, opts), nil
}

// Patterns returns every stored pattern.
func (e *Engine) Patterns() []pattern.ExamPattern {
	return e.cols.Patterns.All()
}

// Pattern returns the pattern with id.
func (e *Engine) Pattern(id string) (pattern.ExamPattern, error) {
	for _, p := range e.cols.Patterns.All() {
		if p.ID == id {
			return p, nil
		}
	}
	return pattern.ExamPattern{}, fmt.Errorf("pattern %q: %w", id, ErrNotFound)
}

// SavePatterns replaces the stored patterns. Patterns with blocking
// validation issues are refused and nothing is written.
func (e *Engine) SavePatterns(ctx context.Context, patterns []pattern.ExamPattern) error {
	for _, p := range patterns {
		if err := validatePattern(p); err != nil {
			return err
		}
	}
	return e.cols.Patterns.Replace(ctx, patterns)
}

// AddPattern validates p and inserts it, replacing any pattern with the
// same id. A missing id or creation time is filled in. Warnings are
// returned alongside the stored pattern.
func (e *Engine) AddPattern(ctx context.Context, p pattern.ExamPattern) (pattern.ExamPattern, pattern.Issues, error) {
	p = p.Clone()
	if p.ID == "" {
		p.ID = e.newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = e.clock()
	}
	for i := range p.Sections {
		if p.Sections[i].ID == "" {
			p.Sections[i].ID = e.newID()
		}
	}

	issues := pattern.Validate(p)
	if err := issues.Err(); err != nil {
		setPatternID(err, p.ID)
		return pattern.ExamPattern{}, issues, err
	}

	err := e.cols.Patterns.Update(ctx, func(ps []pattern.ExamPattern) ([]pattern.ExamPattern, error) {
		for i := range ps {
			if ps[i].ID == p.ID {
				ps[i] = p
				return ps, nil
			}
		}
		return append(ps, p), nil
	})
	if err != nil {
		return pattern.ExamPattern{}, issues, err
	}
	e.logger.Info("pattern saved", "pattern_id", p.ID, "title", p.Title, "warnings", len(issues.Warnings()))
	return p, issues.Warnings(), nil
}

// DeletePattern removes the pattern with id. Attempts keep their
// snapshot and are not touched.
func (e *Engine) DeletePattern(ctx context.Context, id string) error {
	return e.cols.Patterns.Update(ctx, func(ps []pattern.ExamPattern) ([]pattern.ExamPattern, error) {
		for i := range ps {
			if ps[i].ID == id {
				return append(ps[:i], ps[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("pattern %q: %w", id, ErrNotFound)
	})
}

func validatePattern(p pattern.ExamPattern) error {
	err := pattern.Validate(p).Err()
	setPatternID(err, p.ID)
	return err
}

func setPatternID(err error, id string) {
	var verr *pattern.ValidationError
	if errors.As(err, &verr) {
		verr.PatternID = id
	}
}

// Lobbies returns every lobby.
func (e *Engine) Lobbies() []roster.Lobby {
	return e.cols.Lobbies.All()
}

// SaveLobbies validates and replaces the lobbies.
func (e *Engine) SaveLobbies(ctx context.Context, lobbies []roster.Lobby) error {
	if err := roster.ValidateLobbies(lobbies); err != nil {
		return err
	}
	return e.cols.Lobbies.Replace(ctx, lobbies)
}

// Crew returns every crew member.
func (e *Engine) Crew() []roster.CrewMember {
	return e.cols.Crew.All()
}

// SaveCrew validates crew against the stored lobbies and replaces it.
func (e *Engine) SaveCrew(ctx context.Context, crew []roster.CrewMember) error {
	if err := roster.ValidateCrew(crew, e.cols.Lobbies.All()); err != nil {
		return err
	}
	return e.cols.Crew.Replace(ctx, crew)
}

// Books returns every subject book.
func (e *Engine) Books() []roster.SubjectBook {
	return e.cols.Books.All()
}

// SaveBooks validates and replaces the subject books.
func (e *Engine) SaveBooks(ctx context.Context, books []roster.SubjectBook) error {
	if err := roster.ValidateBooks(books); err != nil {
		return err
	}
	return e.cols.Books.Replace(ctx, books)
}

// Attempts returns every stored attempt, newest first.
func (e *Engine) Attempts() []scoring.TestAttempt {
	return e.cols.Attempts.All()
}

// Attempt returns the attempt with id.
func (e *Engine) Attempt(id string) (scoring.TestAttempt, error) {
	for _, a := range e.cols.Attempts.All() {
		if a.ID == id {
			return a, nil
		}
	}
	return scoring.TestAttempt{}, fmt.Errorf("attempt %q: %w", id, ErrNotFound)
}

// DeleteAttempt removes the attempt with id.
func (e *Engine) DeleteAttempt(ctx context.Context, id string) error {
	err := e.cols.Attempts.Update(ctx, func(as []scoring.TestAttempt) ([]scoring.TestAttempt, error) {
		for i := range as {
			if as[i].ID == id {
				return append(as[:i], as[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("attempt %q: %w", id, ErrNotFound)
	})
	if err == nil {
		e.logger.Info("attempt deleted", "attempt_id", id)
	}
	return err
}

// LoadPool validates questions and makes them the active pool.
func (e *Engine) LoadPool(questions []question.Question) error {
	if err := question.ValidateAll(questions); err != nil {
		return err
	}
	idx := pool.New(questions)

	e.mu.Lock()
	e.pool = idx
	e.mu.Unlock()

	e.logger.Info("question pool loaded", "questions", idx.Len(), "topics", len(idx.Topics()))
	return nil
}

// Pool returns the active pool, or nil before LoadPool.
func (e *Engine) Pool() *pool.Index {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool
}

// Select runs the selector for a stored pattern against the active pool.
func (e *Engine) Select(patternID string, seed uint64) (*selector.Selection, error) {
	p, err := e.Pattern(patternID)
	if err != nil {
		return nil, err
	}
	idx := e.Pool()
	if idx == nil {
		return nil, ErrNoPool
	}
	return selector.Select(p, idx, seed)
}

// Join resolves an examinee from a lobby join code and member id.
func (e *Engine) Join(code, memberID string) (roster.Lobby, roster.CrewMember, error) {
	lobby, ok := roster.FindLobbyByCode(e.cols.Lobbies.All(), code)
	if !ok {
		return roster.Lobby{}, roster.CrewMember{}, fmt.Errorf("lobby code %q: %w", strings.TrimSpace(code), ErrNotFound)
	}
	crew, ok := roster.FindMember(e.cols.Crew.All(), lobby.ID, memberID)
	if !ok {
		return roster.Lobby{}, roster.CrewMember{}, fmt.Errorf("member %q in lobby %s: %w", strings.TrimSpace(memberID), lobby.Code, ErrNotFound)
	}
	return lobby, crew, nil
}
