package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SchemaVersion is the envelope version written by this build. Stored
// values with the same major version are readable.
const SchemaVersion = "v1.0.0"

// envelope wraps every stored collection.
type envelope struct {
	Schema string          `json:"schema"`
	Kind   string          `json:"kind"`
	Items  json.RawMessage `json:"items"`
}

const envelopeSchemaURL = "schema://cbot/envelope.json"

var envelopeSchemaDoc = map[string]any{
	"$schema":  "https://json-schema.org/draft/2020-12/schema",
	"type":     "object",
	"required": []any{"schema", "kind", "items"},
	"properties": map[string]any{
		"schema": map[string]any{"type": "string", "pattern": `^v[0-9]+(\.[0-9]+){0,2}$`},
		"kind":   map[string]any{"type": "string", "minLength": 1},
		"items":  map[string]any{"type": []any{"array", "null"}},
	},
}

var (
	envelopeOnce     sync.Once
	envelopeCompiled *jsonschema.Schema
	envelopeErr      error
)

func envelopeSchema() (*jsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(envelopeSchemaURL, envelopeSchemaDoc); err != nil {
			envelopeErr = fmt.Errorf("add resource: %w", err)
			return
		}
		envelopeCompiled, envelopeErr = c.Compile(envelopeSchemaURL)
	})
	return envelopeCompiled, envelopeErr
}

// encode wraps items in a versioned envelope.
func encode(kind string, items any) ([]byte, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	return json.Marshal(envelope{Schema: SchemaVersion, Kind: kind, Items: raw})
}

// decode reads a stored value into out, which must be a pointer to a
// slice. A bare JSON array is accepted as the legacy unversioned format.
func decode(key, kind string, raw []byte, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, out); err != nil {
			return &SchemaError{Key: key, Kind: kind, Err: fmt.Errorf("legacy array: %w", err)}
		}
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &SchemaError{Key: key, Kind: kind, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	compiled, err := envelopeSchema()
	if err != nil {
		return fmt.Errorf("envelope schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return &SchemaError{Key: key, Kind: kind, Err: fmt.Errorf("envelope validation failed: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &SchemaError{Key: key, Kind: kind, Err: err}
	}
	if err := checkVersion(env.Schema); err != nil {
		return &SchemaError{Key: key, Kind: kind, Version: env.Schema, Err: err}
	}
	if env.Kind != kind {
		return &SchemaError{Key: key, Kind: kind, Version: env.Schema,
			Err: fmt.Errorf("stored kind is %q", env.Kind)}
	}
	if len(env.Items) == 0 || bytes.Equal(env.Items, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Items, out); err != nil {
		return &SchemaError{Key: key, Kind: kind, Version: env.Schema, Err: fmt.Errorf("items: %w", err)}
	}
	return nil
}

// errNewerSchema is wrapped when a value was written by a newer major.
var errNewerSchema = errors.New("schema version is newer than supported")

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid schema version %q", v)
	}
	if semver.Compare(semver.Major(v), semver.Major(SchemaVersion)) > 0 {
		return fmt.Errorf("%w (%s > %s)", errNewerSchema, semver.Major(v), semver.Major(SchemaVersion))
	}
	return nil
}
