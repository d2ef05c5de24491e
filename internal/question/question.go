package question

import (
	"fmt"
	"strings"
)

// Option identifies one of the four answer choices.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// AllOptions returns the answer choices in display order.
func AllOptions() []Option {
	return []Option{OptionA, OptionB, OptionC, OptionD}
}

// Valid reports whether o is one of A-D.
func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// ParseOption parses a user-supplied choice ("a", " B ") into an Option.
func ParseOption(s string) (Option, error) {
	o := Option(strings.ToUpper(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("invalid option %q: must be one of A, B, C, D", s)
	}
	return o, nil
}

// Category is the kind of reasoning a question tests.
type Category string

const (
	CategoryConcept   Category = "Concept"
	CategoryScenario  Category = "Scenario"
	CategoryAuthority Category = "Authority"
)

// Categories returns the categories in presentation order.
func Categories() []Category {
	return []Category{CategoryConcept, CategoryScenario, CategoryAuthority}
}

// Difficulty is the tier a question belongs to.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties returns the tiers in tie-break order (Easy < Medium < Hard).
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// OrDefault returns d, or Medium when the question carries no tier.
func (d Difficulty) OrDefault() Difficulty {
	if d == "" {
		return Medium
	}
	return d
}

// Options holds the text of the four answer choices.
type Options struct {
	A string `json:"A" validate:"required"`
	B string `json:"B" validate:"required"`
	C string `json:"C" validate:"required"`
	D string `json:"D" validate:"required"`
}

// Text returns the text for a given choice.
func (o Options) Text(opt Option) string {
	switch opt {
	case OptionA:
		return o.A
	case OptionB:
		return o.B
	case OptionC:
		return o.C
	case OptionD:
		return o.D
	}
	return ""
}

// Question is a single multiple-choice item in the question bank.
// Attempts hold questions by value so later bank edits never reach them.
type Question struct {
	ID            string     `json:"id" validate:"required"`
	Text          string     `json:"text" validate:"required"`
	Options       Options    `json:"options"`
	CorrectAnswer Option     `json:"correctAnswer" validate:"required,oneof=A B C D"`
	Category      Category   `json:"category" validate:"required,oneof=Concept Scenario Authority"`
	Difficulty    Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	Explanation   string     `json:"explanation"`

	Topic          string `json:"topic,omitempty"`
	SubTopic       string `json:"subTopic,omitempty"`
	TopicSerial    string `json:"topicSerial,omitempty"`
	SubTopicSerial string `json:"subTopicSerial,omitempty"`
	PageReference  string `json:"pageReference,omitempty"`
	HasImage       bool   `json:"hasImage,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

// IsCorrect reports whether opt is the keyed answer.
func (q Question) IsCorrect(opt Option) bool {
	return opt == q.CorrectAnswer
}
