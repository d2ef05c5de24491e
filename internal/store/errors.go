package store

import "fmt"

// StorageError reports a failed read or write against the KV backend.
// The in-memory collection is unchanged when a write fails.
type StorageError struct {
	Op  string // "get", "set" or "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SchemaError reports a stored value that cannot be decoded: malformed
// JSON, an envelope that fails validation, the wrong kind, or a schema
// version newer than this build understands.
type SchemaError struct {
	Key     string
	Kind    string
	Version string
	Err     error
}

func (e *SchemaError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("decode %s (kind %s, schema %s): %v", e.Key, e.Kind, e.Version, e.Err)
	}
	return fmt.Sprintf("decode %s (kind %s): %v", e.Key, e.Kind, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
