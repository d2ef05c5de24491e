package scoring

import (
	"maps"
	"slices"
	"time"

	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/selector"
)

// EndReason records how an attempt finished.
type EndReason string

const (
	EndSubmitted EndReason = "submitted"
	EndExpired   EndReason = "expired"
)

// SectionResult is the stored provenance and outcome of one section.
type SectionResult struct {
	SectionID        string   `json:"sectionId,omitempty"`
	SectionName      string   `json:"sectionName"`
	MarksPerQuestion float64  `json:"marksPerQuestion"`
	NegativeMarks    float64  `json:"negativeMarks"`
	QuestionIDs      []string `json:"questionIds"`
	Score            float64  `json:"score"`
	TotalPossible    float64  `json:"totalPossible"`
	CorrectCount     int      `json:"correctCount"`
	WrongCount       int      `json:"wrongCount"`
	UnansweredCount  int      `json:"unansweredCount"`
}

// TestAttempt is the immutable record of a finished attempt. It embeds
// snapshots of the questions and the pattern title so later edits to the
// pattern or pool never change history.
type TestAttempt struct {
	ID              string                     `json:"id"`
	PatternID       string                     `json:"patternId"`
	PatternTitle    string                     `json:"patternTitle"`
	LobbyID         string                     `json:"lobbyId"`
	LobbyCode       string                     `json:"lobbyCode"`
	LobbyName       string                     `json:"lobbyName,omitempty"`
	CrewID          string                     `json:"crewId"`
	CrewMemberID    string                     `json:"crewMemberId,omitempty"`
	CrewName        string                     `json:"crewName"`
	CrewRank        roster.Rank                `json:"crewRank"`
	Score           float64                    `json:"score"`
	TotalPossible   float64                    `json:"totalPossible"`
	CorrectCount    int                        `json:"correctCount"`
	WrongCount      int                        `json:"wrongCount"`
	UnansweredCount int                        `json:"unansweredCount"`
	CompletedAt     time.Time                  `json:"completedAt"`
	EndReason       EndReason                  `json:"endReason,omitempty"`
	Answers         map[string]question.Option `json:"answers"`
	Questions       []question.Question        `json:"questions"`
	Sections        []SectionResult            `json:"sections,omitempty"`
}

// Clone returns a deep copy of a.
func (a TestAttempt) Clone() TestAttempt {
	a.Answers = maps.Clone(a.Answers)
	a.Questions = slices.Clone(a.Questions)
	if a.Sections != nil {
		sections := make([]SectionResult, len(a.Sections))
		for i, s := range a.Sections {
			s.QuestionIDs = slices.Clone(s.QuestionIDs)
			sections[i] = s
		}
		a.Sections = sections
	}
	return a
}

// Percentage returns Score as a percentage of TotalPossible.
func (a TestAttempt) Percentage() float64 {
	if a.TotalPossible == 0 {
		return 0
	}
	return a.Score / a.TotalPossible * 100
}

// AttemptInput gathers what NewAttempt needs from a finished session.
type AttemptInput struct {
	ID           string
	PatternTitle string
	Selection    *selector.Selection
	Answers      map[string]question.Option
	Lobby        roster.Lobby
	Crew         roster.CrewMember
	CompletedAt  time.Time
	EndReason    EndReason
}

// NewAttempt scores in and assembles the attempt record. The answers and
// questions are copied so the record shares no state with the session.
func NewAttempt(in AttemptInput) TestAttempt {
	sel := in.Selection
	out := Score(sel.Questions, in.Answers, sel.Allocations)

	answers := make(map[string]question.Option, len(in.Answers))
	for k, v := range in.Answers {
		answers[k] = v
	}
	questions := make([]question.Question, len(sel.Questions))
	copy(questions, sel.Questions)

	sections := make([]SectionResult, len(sel.Allocations))
	for i, a := range sel.Allocations {
		so := out.Sections[i]
		sections[i] = SectionResult{
			SectionID:        a.SectionID,
			SectionName:      a.SectionName,
			MarksPerQuestion: a.MarksPerQuestion,
			NegativeMarks:    a.NegativeMarks,
			QuestionIDs:      append([]string(nil), a.QuestionIDs...),
			Score:            so.Score,
			TotalPossible:    so.TotalPossible,
			CorrectCount:     so.CorrectCount,
			WrongCount:       so.WrongCount,
			UnansweredCount:  so.UnansweredCount,
		}
	}

	return TestAttempt{
		ID:              in.ID,
		PatternID:       sel.PatternID,
		PatternTitle:    in.PatternTitle,
		LobbyID:         in.Lobby.ID,
		LobbyCode:       in.Lobby.Code,
		LobbyName:       in.Lobby.Name,
		CrewID:          in.Crew.ID,
		CrewMemberID:    in.Crew.MemberID,
		CrewName:        in.Crew.Name,
		CrewRank:        in.Crew.Rank,
		Score:           out.Score,
		TotalPossible:   out.TotalPossible,
		CorrectCount:    out.CorrectCount,
		WrongCount:      out.WrongCount,
		UnansweredCount: out.UnansweredCount,
		CompletedAt:     in.CompletedAt,
		EndReason:       in.EndReason,
		Answers:         answers,
		Questions:       questions,
		Sections:        sections,
	}
}

// Allocations rebuilds the selection-time allocations from a stored
// attempt.
func (a TestAttempt) Allocations() []selector.Allocation {
	out := make([]selector.Allocation, len(a.Sections))
	for i, s := range a.Sections {
		out[i] = selector.Allocation{
			SectionID:        s.SectionID,
			SectionName:      s.SectionName,
			MarksPerQuestion: s.MarksPerQuestion,
			NegativeMarks:    s.NegativeMarks,
			QuestionIDs:      s.QuestionIDs,
		}
	}
	return out
}

// Rescore recomputes the outcome of a stored attempt from its own
// snapshot. Attempts written before section provenance was recorded have
// no sections; their stored totals are returned as-is.
func Rescore(a TestAttempt) Outcome {
	if len(a.Sections) == 0 {
		return Outcome{
			Score:           a.Score,
			TotalPossible:   a.TotalPossible,
			CorrectCount:    a.CorrectCount,
			WrongCount:      a.WrongCount,
			UnansweredCount: a.UnansweredCount,
		}
	}
	return Score(a.Questions, a.Answers, a.Allocations())
}

// Consistent reports whether the attempt's stored totals match a rescore.
func Consistent(a TestAttempt) bool {
	o := Rescore(a)
	const eps = 1e-9
	diff := o.Score - a.Score
	return diff < eps && diff > -eps &&
		o.CorrectCount == a.CorrectCount &&
		o.WrongCount == a.WrongCount &&
		o.UnansweredCount == a.UnansweredCount &&
		o.CorrectCount+o.WrongCount+o.UnansweredCount == len(a.Questions)
}
