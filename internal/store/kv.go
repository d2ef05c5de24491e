// Package store persists the engine's collections in a string-keyed
// key/value store. Values are whole-collection JSON documents.
package store

import (
	"context"
	"fmt"
)

// Collection keys. Absent keys read as empty collections.
const (
	KeyPatterns = "cbot_patterns"
	KeyAttempts = "cbot_attempts"
	KeyLobbies  = "cbot_lobbies"
	KeyCrew     = "cbot_crew"
	KeyBooks    = "cbot_books"
)

// KV is the persistence transport. Get reports found=false, with no error,
// for a key that has never been written or was deleted.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend  Backend
	DBPath   string
	RedisURL string
}

// Backing is what Open returns: a KV that also records LLM request events.
type Backing interface {
	KV
	EventRepo
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (Backing, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return OpenSQLite(opts.DBPath)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL)
	case BackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
