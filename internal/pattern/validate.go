package pattern

import (
	"fmt"
	"math"
	"strings"

	"github.com/cbot-lab/cbot/internal/question"
)

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityError blocks selection.
	SeverityError Severity = "error"
	// SeverityWarning is surfaced to the author but does not block selection.
	SeverityWarning Severity = "warning"
)

// Issue is a single finding from Validate.
type Issue struct {
	Severity Severity
	Section  string // empty for pattern-level issues
	Message  string
}

func (i Issue) String() string {
	if i.Section != "" {
		return fmt.Sprintf("[%s] section %q: %s", i.Severity, i.Section, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}

// Issues is the full result of validating a pattern.
type Issues []Issue

// Blocking reports whether any issue prevents selection.
func (is Issues) Blocking() bool {
	for _, i := range is {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-level issues.
func (is Issues) Warnings() Issues {
	var out Issues
	for _, i := range is {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// Err returns a *ValidationError when any issue is blocking, nil otherwise.
func (is Issues) Err() error {
	if !is.Blocking() {
		return nil
	}
	return &ValidationError{Issues: is}
}

// ValidationError is returned when a pattern is structurally inconsistent.
type ValidationError struct {
	PatternID string
	Issues    Issues
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		lines = append(lines, i.String())
	}
	prefix := "pattern validation failed"
	if e.PatternID != "" {
		prefix = fmt.Sprintf("pattern %q validation failed", e.PatternID)
	}
	return prefix + ":\n  " + strings.Join(lines, "\n  ")
}

// marksTolerance absorbs float noise when comparing mark totals.
const marksTolerance = 1e-9

// Validate checks a pattern's internal consistency. Every check runs
// regardless of earlier failures.
func Validate(p ExamPattern) Issues {
	var issues Issues
	errorf := func(section, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Section: section, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(section, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityWarning, Section: section, Message: fmt.Sprintf(format, args...)})
	}

	if p.TotalDurationMinutes <= 0 {
		errorf("", "totalDurationMinutes must be > 0, got %d", p.TotalDurationMinutes)
	}
	if len(p.Sections) == 0 {
		errorf("", "pattern has no sections")
	}

	d := p.DifficultyDistribution
	if d.EasyPercentage < 0 || d.MediumPercentage < 0 || d.HardPercentage < 0 {
		errorf("", "difficulty percentages must not be negative (easy=%d, medium=%d, hard=%d)",
			d.EasyPercentage, d.MediumPercentage, d.HardPercentage)
	}
	if d.Sum() != 100 {
		errorf("", "difficulty percentages must sum to 100, got %d", d.Sum())
	}

	names := make(map[string]bool, len(p.Sections))
	for idx, s := range p.Sections {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("#%d", idx+1)
		}
		if names[name] {
			warnf(name, "duplicate section name")
		}
		names[name] = true

		if s.QuestionCount <= 0 {
			errorf(name, "questionCount must be > 0, got %d", s.QuestionCount)
		}
		if s.MarksPerQuestion <= 0 {
			errorf(name, "marksPerQuestion must be > 0, got %g", s.MarksPerQuestion)
		}
		if s.NegativeMarks < 0 {
			errorf(name, "negativeMarks must be >= 0, got %g", s.NegativeMarks)
		}
		if s.ConceptInterpretationCount < 0 || s.ScenarioApplicationCount < 0 || s.AuthorityLocationCount < 0 {
			errorf(name, "category counts must not be negative (concept=%d, scenario=%d, authority=%d)",
				s.ConceptInterpretationCount, s.ScenarioApplicationCount, s.AuthorityLocationCount)
		}
		if s.QuestionCount > 0 {
			var zero []string
			for _, c := range question.Categories() {
				if s.CategoryCount(c) == 0 {
					zero = append(zero, string(c))
				}
			}
			if len(zero) > 0 {
				warnf(name, "no %s questions are drawn", strings.Join(zero, " or "))
			}
		}
		if sum := s.ConceptInterpretationCount + s.ScenarioApplicationCount + s.AuthorityLocationCount; sum != s.QuestionCount {
			errorf(name, "category counts sum to %d, want questionCount %d", sum, s.QuestionCount)
		}
		if len(nonEmpty(s.Topics)) == 0 {
			errorf(name, "no eligible topics")
		}
	}

	if computed := p.ComputedMarks(); math.Abs(computed-p.TotalMarks) > marksTolerance {
		warnf("", "totalMarks is %g but sections add up to %g", p.TotalMarks, computed)
	}

	return issues
}

// nonEmpty drops blank topic labels.
func nonEmpty(topics []string) []string {
	var out []string
	for _, t := range topics {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
