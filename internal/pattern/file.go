package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads patterns from a JSON file holding either one pattern
// object or an array of them. The patterns are not validated.
func LoadFile(path string) ([]ExamPattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	return Parse(b)
}

// Parse decodes one pattern object or an array of patterns.
func Parse(b []byte) ([]ExamPattern, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var ps []ExamPattern
		if err := json.Unmarshal(b, &ps); err != nil {
			return nil, fmt.Errorf("parse patterns: %w", err)
		}
		return ps, nil
	}
	var p ExamPattern
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse pattern: %w", err)
	}
	return []ExamPattern{p}, nil
}
