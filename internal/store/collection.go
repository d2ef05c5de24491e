package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/scoring"
)

// Collection is an in-memory list of T mirrored to a single KV key.
// Writes replace the whole value and go through to the store before the
// in-memory copy changes, so a failed write leaves the collection as it
// was.
type Collection[T any] struct {
	mu     sync.Mutex
	kv     KV
	key    string
	kind   string
	items  []T
	logger *slog.Logger
}

// NewCollection returns an empty collection bound to key.
func NewCollection[T any](kv KV, key, kind string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collection[T]{kv: kv, key: key, kind: kind, logger: logger}
}

// Key returns the KV key the collection is stored under.
func (c *Collection[T]) Key() string { return c.key }

// Load replaces the in-memory items with what is stored. An absent key
// loads as empty.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, found, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return &StorageError{Op: "get", Key: c.key, Err: err}
	}
	var items []T
	if found {
		if err := decode(c.key, c.kind, raw, &items); err != nil {
			return err
		}
	}
	c.items = items
	c.logger.Debug("collection loaded", "key", c.key, "items", len(items))
	return nil
}

// All returns a copy of the items in stored order. Items with a
// Clone method are deep-copied.
func (c *Collection[T]) All() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.items)
}

func cloneAll[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, v := range items {
		if cl, ok := any(v).(interface{ Clone() T }); ok {
			v = cl.Clone()
		}
		out[i] = v
	}
	return out
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Replace persists items as the whole collection.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(ctx, items)
}

// Update applies fn to a copy of the items and persists the result as one
// atomic read-modify-write. If fn returns an error nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(cloneAll(c.items))
	if err != nil {
		return err
	}
	return c.writeLocked(ctx, next)
}

func (c *Collection[T]) writeLocked(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := encode(c.kind, items)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, c.key, raw); err != nil {
		c.logger.Warn("collection write failed", "key", c.key, "error", err)
		return &StorageError{Op: "set", Key: c.key, Err: err}
	}
	c.items = cloneAll(items)

	attrs := []any{"key", c.key, "items", len(items), "bytes", len(raw)}
	if rv, ok := c.kv.(interface {
		Revision(context.Context, string) (int64, error)
	}); ok {
		if rev, err := rv.Revision(ctx, c.key); err == nil {
			attrs = append(attrs, "revision", rev)
		}
	}
	c.logger.Debug("collection saved", attrs...)
	return nil
}

// Collections bundles the five persisted collections.
type Collections struct {
	Patterns *Collection[pattern.ExamPattern]
	Attempts *Collection[scoring.TestAttempt]
	Lobbies  *Collection[roster.Lobby]
	Crew     *Collection[roster.CrewMember]
	Books    *Collection[roster.SubjectBook]
}

// NewCollections binds every collection to kv under its well-known key.
func NewCollections(kv KV, logger *slog.Logger) *Collections {
	return &Collections{
		Patterns: NewCollection[pattern.ExamPattern](kv, KeyPatterns, "patterns", logger),
		Attempts: NewCollection[scoring.TestAttempt](kv, KeyAttempts, "attempts", logger),
		Lobbies:  NewCollection[roster.Lobby](kv, KeyLobbies, "lobbies", logger),
		Crew:     NewCollection[roster.CrewMember](kv, KeyCrew, "crew", logger),
		Books:    NewCollection[roster.SubjectBook](kv, KeyBooks, "books", logger),
	}
}

// LoadAll loads every collection, stopping at the first failure.
func (c *Collections) LoadAll(ctx context.Context) error {
	loaders := []interface{ Load(context.Context) error }{
		c.Patterns, c.Attempts, c.Lobbies, c.Crew, c.Books,
	}
	for _, l := range loaders {
		if err := l.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}
