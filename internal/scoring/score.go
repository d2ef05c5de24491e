// Package scoring turns a terminal answer map into marks and assembles the
// immutable attempt record.
package scoring

import (
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/selector"
)

// SectionOutcome is the per-section breakdown of an Outcome.
type SectionOutcome struct {
	SectionName     string  `json:"sectionName"`
	Score           float64 `json:"score"`
	TotalPossible   float64 `json:"totalPossible"`
	CorrectCount    int     `json:"correctCount"`
	WrongCount      int     `json:"wrongCount"`
	UnansweredCount int     `json:"unansweredCount"`
}

// Outcome is the result of scoring one attempt.
type Outcome struct {
	Score           float64
	TotalPossible   float64
	CorrectCount    int
	WrongCount      int
	UnansweredCount int
	Sections        []SectionOutcome
}

// Percentage returns Score as a percentage of TotalPossible.
func (o Outcome) Percentage() float64 {
	if o.TotalPossible == 0 {
		return 0
	}
	return o.Score / o.TotalPossible * 100
}

// Score marks answers against questions. Each question takes the marking
// rules of the allocation that drew it: a correct answer earns the
// section's marks, a wrong one costs its negative marks, and an
// unanswered question scores zero. Questions that no allocation claims
// are counted with zero marks.
//
// Score has no side effects; the same inputs always produce the same
// Outcome.
func Score(questions []question.Question, answers map[string]question.Option, allocations []selector.Allocation) Outcome {
	sectionOf := make(map[string]int, len(questions))
	for i, a := range allocations {
		for _, id := range a.QuestionIDs {
			if _, ok := sectionOf[id]; !ok {
				sectionOf[id] = i
			}
		}
	}

	out := Outcome{Sections: make([]SectionOutcome, len(allocations))}
	for i, a := range allocations {
		out.Sections[i].SectionName = a.SectionName
	}

	for _, q := range questions {
		var marks, negative float64
		var sec *SectionOutcome
		if i, ok := sectionOf[q.ID]; ok {
			marks = allocations[i].MarksPerQuestion
			negative = allocations[i].NegativeMarks
			sec = &out.Sections[i]
		} else {
			sec = &SectionOutcome{}
		}

		sec.TotalPossible += marks
		out.TotalPossible += marks

		opt, answered := answers[q.ID]
		switch {
		case !answered || opt == "":
			sec.UnansweredCount++
			out.UnansweredCount++
		case q.IsCorrect(opt):
			sec.CorrectCount++
			sec.Score += marks
			out.CorrectCount++
			out.Score += marks
		default:
			sec.WrongCount++
			sec.Score -= negative
			out.WrongCount++
			out.Score -= negative
		}
	}
	return out
}
