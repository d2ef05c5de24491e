package join

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/ui/theme"
)

func (j *JoinScreen) View(width, height int) string {
	var body string
	switch j.phase {
	case phaseCode:
		body = j.renderInput("Enter your lobby code", "The code is on the notice board of your crew lobby.")
	case phaseMember:
		body = j.renderInput("Enter your member ID", "Lobby: "+j.lobby.Name)
	case phasePattern:
		body = j.renderPatterns()
	case phaseConfirm:
		body = j.renderConfirm()
	}

	if j.errMsg != "" {
		body += "\n\n" + theme.ErrorText.Render(j.errMsg)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (j *JoinScreen) renderInput(prompt, hint string) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(prompt))
	b.WriteString("\n\n")
	b.WriteString(theme.Card.Render(j.input.View()))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(hint))
	return b.String()
}

func (j *JoinScreen) renderPatterns() string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(fmt.Sprintf("Welcome, %s", j.crew.Name)))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Choose the test to sit"))
	b.WriteString("\n\n")
	b.WriteString(j.menu.View())
	return b.String()
}

func (j *JoinScreen) renderConfirm() string {
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Width(12)
	row := func(k, v string) string {
		return label.Render(k) + theme.Body.Render(v) + "\n"
	}

	p := j.pattern
	var b strings.Builder
	b.WriteString(theme.Title.Render(p.Title))
	b.WriteString("\n\n")
	b.WriteString(row("Name", j.crew.Name))
	b.WriteString(row("Member ID", j.crew.MemberID))
	b.WriteString(row("Rank", string(j.crew.Rank)))
	b.WriteString(row("Lobby", j.lobby.Name))
	b.WriteString("\n")
	b.WriteString(row("Questions", fmt.Sprintf("%d", p.QuestionCount())))
	b.WriteString(row("Marks", fmt.Sprintf("%g", p.ComputedMarks())))
	b.WriteString(row("Duration", fmt.Sprintf("%d min", p.TotalDurationMinutes)))
	for _, s := range p.Sections {
		if s.NegativeMarks > 0 {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Wrong answers carry negative marks. Unanswered questions score zero."))
			break
		}
	}
	b.WriteString("\n\n")
	b.WriteString(theme.Selected.Render("Press Enter to start the clock"))

	return theme.Card.Render(b.String())
}
