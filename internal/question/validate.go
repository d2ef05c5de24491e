package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a single question record.
func Validate(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("question %q: %s", q.ID, describe(err))
	}
	return nil
}

// ValidateAll checks every record and rejects duplicate identities.
// All problems are reported together.
func ValidateAll(qs []Question) error {
	var errs []string
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		if err := Validate(q); err != nil {
			errs = append(errs, fmt.Sprintf("#%d: %v", i, err))
		}
		if q.ID != "" && seen[q.ID] {
			errs = append(errs, fmt.Sprintf("#%d: duplicate question ID %q", i, q.ID))
		}
		seen[q.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("question bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// LoadFile reads a question bank (a JSON array of questions) from disk
// and validates it.
func LoadFile(path string) ([]Question, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var qs []Question
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	if err := ValidateAll(qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
