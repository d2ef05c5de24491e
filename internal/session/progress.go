package session

import "time"

// Progress is a point-in-time view of a session for the exam screen.
type Progress struct {
	State     State
	Answered  int
	Total     int
	Remaining time.Duration
}

// Unanswered returns the number of questions without a recorded answer.
func (p Progress) Unanswered() int {
	return p.Total - p.Answered
}

// Fraction returns answered/total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Answered) / float64(p.Total)
}
