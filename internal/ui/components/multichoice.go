package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/ui/theme"
)

// AnswerChangedMsg is emitted when the examinee picks or clears a choice.
// An empty Option means the answer was cleared.
type AnswerChangedMsg struct {
	QuestionID string
	Option     question.Option
}

// MultiChoice shows one question with its four options. While answering,
// the chosen option is marked and can be changed or cleared; in reveal
// mode the keyed answer is shown as well.
type MultiChoice struct {
	QuestionID string
	Question   string
	Options    question.Options
	Cursor     int
	Chosen     question.Option
	Reveal     bool
	Correct    question.Option
}

// NewMultiChoice creates a choice for q with any previously chosen answer.
func NewMultiChoice(q question.Question, chosen question.Option) MultiChoice {
	m := MultiChoice{
		QuestionID: q.ID,
		Question:   q.Text,
		Options:    q.Options,
		Chosen:     chosen,
		Correct:    q.CorrectAnswer,
	}
	if i := optionIndex(chosen); i >= 0 {
		m.Cursor = i
	}
	return m
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Reveal {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	opts := question.AllOptions()
	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(opts)-1 {
			m.Cursor++
		}
	case "enter", "space", " ":
		return m.choose(opts[m.Cursor])
	case "a", "b", "c", "d", "A", "B", "C", "D":
		o := question.Option(strings.ToUpper(key))
		m.Cursor = optionIndex(o)
		return m.choose(o)
	case "1", "2", "3", "4":
		m.Cursor = int(key[0] - '1')
		return m.choose(opts[m.Cursor])
	case "x", "backspace", "delete":
		if m.Chosen == "" {
			return m, nil
		}
		m.Chosen = ""
		return m, m.changed()
	}

	return m, nil
}

func (m MultiChoice) choose(o question.Option) (MultiChoice, tea.Cmd) {
	if m.Chosen == o {
		return m, nil
	}
	m.Chosen = o
	return m, m.changed()
}

func (m MultiChoice) changed() tea.Cmd {
	msg := AnswerChangedMsg{QuestionID: m.QuestionID, Option: m.Chosen}
	return func() tea.Msg { return msg }
}

// View renders the question and its options.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	s := questionStyle.Render(m.Question) + "\n\n"

	for i, opt := range question.AllOptions() {
		prefix := "  "
		if i == m.Cursor && !m.Reveal {
			prefix = "> "
		}
		marker := " "
		if opt == m.Chosen {
			marker = "*"
		}

		line := fmt.Sprintf("%s%s %s)  %s", prefix, marker, opt, m.Options.Text(opt))

		var style lipgloss.Style
		switch {
		case m.Reveal && opt == m.Correct:
			style = theme.Correct
		case m.Reveal && opt == m.Chosen:
			style = theme.Incorrect
		case m.Reveal:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case opt == m.Chosen:
			style = theme.Chosen
		case i == m.Cursor:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		s += style.Render(line) + "\n"
	}

	return s
}

// Answered reports whether an option is chosen.
func (m MultiChoice) Answered() bool {
	return m.Chosen != ""
}

func optionIndex(o question.Option) int {
	for i, opt := range question.AllOptions() {
		if opt == o {
			return i
		}
	}
	return -1
}
