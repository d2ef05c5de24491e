package pattern

import (
	"slices"
	"time"

	"github.com/cbot-lab/cbot/internal/question"
)

// ExamPattern is an exam blueprint: ordered sections with quotas and
// marking rules, plus a difficulty mix applied inside every section.
type ExamPattern struct {
	ID                     string                 `json:"id"`
	Title                  string                 `json:"title"`
	Description            string                 `json:"description"`
	Subject                string                 `json:"subject"`
	SubSubject             string                 `json:"subSubject,omitempty"`
	TotalDurationMinutes   int                    `json:"totalDurationMinutes"`
	TotalMarks             float64                `json:"totalMarks"`
	Sections               []Section              `json:"sections"`
	DifficultyDistribution DifficultyDistribution `json:"difficultyDistribution"`
	CreatedAt              time.Time              `json:"createdAt"`
}

// Clone returns a deep copy of p.
func (p ExamPattern) Clone() ExamPattern {
	if p.Sections != nil {
		sections := make([]Section, len(p.Sections))
		for i, s := range p.Sections {
			s.Topics = slices.Clone(s.Topics)
			sections[i] = s
		}
		p.Sections = sections
	}
	return p
}

// Section is a named block of a pattern with its own quotas and marks.
type Section struct {
	ID                         string   `json:"id"`
	Name                       string   `json:"name"`
	QuestionCount              int      `json:"questionCount"`
	MarksPerQuestion           float64  `json:"marksPerQuestion"`
	NegativeMarks              float64  `json:"negativeMarks"`
	Topics                     []string `json:"topics"`
	ConceptInterpretationCount int      `json:"conceptInterpretationCount"`
	ScenarioApplicationCount   int      `json:"scenarioApplicationCount"`
	AuthorityLocationCount     int      `json:"authorityLocationCount"`
}

// CategoryCount returns the section's quota for a category.
func (s Section) CategoryCount(c question.Category) int {
	switch c {
	case question.CategoryConcept:
		return s.ConceptInterpretationCount
	case question.CategoryScenario:
		return s.ScenarioApplicationCount
	case question.CategoryAuthority:
		return s.AuthorityLocationCount
	}
	return 0
}

// MaxMarks is the best score the section can contribute.
func (s Section) MaxMarks() float64 {
	return float64(s.QuestionCount) * s.MarksPerQuestion
}

// DifficultyDistribution is the easy/medium/hard percentage mix.
type DifficultyDistribution struct {
	EasyPercentage   int `json:"easyPercentage"`
	MediumPercentage int `json:"mediumPercentage"`
	HardPercentage   int `json:"hardPercentage"`
}

// Sum returns the total of the three percentages.
func (d DifficultyDistribution) Sum() int {
	return d.EasyPercentage + d.MediumPercentage + d.HardPercentage
}

// Split divides count across the three tiers using SplitByPercent.
func (d DifficultyDistribution) Split(count int) map[question.Difficulty]int {
	parts := SplitByPercent(count, d.EasyPercentage, d.MediumPercentage, d.HardPercentage)
	return map[question.Difficulty]int{
		question.Easy:   parts[0],
		question.Medium: parts[1],
		question.Hard:   parts[2],
	}
}

// QuestionCount returns the total number of questions the pattern draws.
func (p ExamPattern) QuestionCount() int {
	n := 0
	for _, s := range p.Sections {
		n += s.QuestionCount
	}
	return n
}

// ComputedMarks is the sum over sections of count x marks.
func (p ExamPattern) ComputedMarks() float64 {
	var total float64
	for _, s := range p.Sections {
		total += s.MaxMarks()
	}
	return total
}

// Duration returns the time budget of a session on this pattern.
func (p ExamPattern) Duration() time.Duration {
	return time.Duration(p.TotalDurationMinutes) * time.Minute
}
