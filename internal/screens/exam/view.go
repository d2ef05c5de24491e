package exam

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/ui/components"
	"github.com/cbot-lab/cbot/internal/ui/theme"
)

func (e *ExamScreen) View(width, height int) string {
	if e.ending {
		return e.renderEnding(width, height)
	}
	if e.confirm != confirmNone {
		return e.renderConfirm(width, height)
	}
	return e.renderQuestion(width)
}

func (e *ExamScreen) renderQuestion(width int) string {
	qs := e.sess.Selection().Questions
	if len(qs) == 0 {
		return ""
	}
	q := qs[e.current]

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Section: %s", e.sections[q.ID]))
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Question %d/%d", e.current+1, len(qs)))

	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(max(width-8, 20)).PaddingLeft(2)
	b.WriteString(body.Render(e.choice.View()))
	b.WriteString("\n")

	if e.errMsg != "" {
		b.WriteString("  " + theme.ErrorText.Render(e.errMsg) + "\n\n")
	}

	answers := e.sess.Answers()
	answered := make([]bool, len(qs))
	for i, q := range qs {
		_, answered[i] = answers[q.ID]
	}
	p := e.sess.Progress()
	bar := components.NewProgressBar(
		fmt.Sprintf("Answered %d/%d", p.Answered, p.Total), p.Fraction(), false, min(width-4, 60))
	b.WriteString("  " + bar.View() + "\n\n")
	strip := components.QuestionStrip{Answered: answered, Current: e.current}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(strip.View(width - 6)))

	return b.String()
}

func (e *ExamScreen) renderConfirm(width, height int) string {
	p := e.sess.Progress()
	var prompt string
	switch e.confirm {
	case confirmSubmit:
		prompt = "Submit the paper?"
		if n := p.Unanswered(); n > 0 {
			prompt += fmt.Sprintf("\n\n%d question(s) are still unanswered.", n)
		}
	case confirmCancel:
		prompt = "Abandon this test?\n\nNo attempt will be recorded."
	}
	card := theme.Card.Render(
		theme.Body.Bold(true).Render(prompt) + "\n\n" +
			theme.Hint.Render("Y to confirm, N to go back"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (e *ExamScreen) renderEnding(width, height int) string {
	if e.errMsg != "" {
		msg := theme.ErrorText.Render(e.errMsg) + "\n\n" + theme.Hint.Render("Press R to try again")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Subtitle.Render("Scoring..."))
}
