package exam

import (
	"time"

	"github.com/cbot-lab/cbot/internal/scoring"
)

// timerTickMsg is sent every second to update the countdown.
type timerTickMsg time.Time

// endedMsg carries the outcome of ending the session.
type endedMsg struct {
	Attempt *scoring.TestAttempt
	Err     error
}

// answerFailedMsg reports an answer the session refused.
type answerFailedMsg struct {
	Err error
}
