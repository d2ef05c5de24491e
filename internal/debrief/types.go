// Package debrief turns the missed questions of a finished attempt into a
// short study plan, using whichever LLM provider is configured.
package debrief

import (
	"time"

	"github.com/cbot-lab/cbot/internal/question"
)

// Missed is one question the examinee got wrong or left blank.
type Missed struct {
	QuestionID    string          `json:"questionId"`
	Topic         string          `json:"topic"`
	Text          string          `json:"text"`
	Chosen        question.Option `json:"chosen,omitempty"`
	Correct       question.Option `json:"correct"`
	PageReference string          `json:"pageReference,omitempty"`
}

// TopicNote is the advice for one weak topic.
type TopicNote struct {
	Topic string   `json:"topic"`
	Focus string   `json:"focus"`
	Pages []string `json:"pages"`
}

// Debrief is the study plan for one attempt.
type Debrief struct {
	AttemptID   string      `json:"attemptId"`
	Summary     string      `json:"summary"`
	Topics      []TopicNote `json:"topics"`
	Missed      []Missed    `json:"missed"`
	Model       string      `json:"model,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// MaxMissed caps how many missed questions are sent in the prompt.
	MaxMissed int
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1500,
		Temperature: 0.3,
		Timeout:     60 * time.Second,
		MaxMissed:   40,
	}
}
