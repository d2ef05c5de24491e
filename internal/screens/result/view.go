package result

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/ui/theme"
)

func (r *ResultScreen) View(width, height int) string {
	switch r.mode {
	case modeReview:
		return r.renderReview(width)
	case modeDebrief:
		return r.renderDebrief(width, height)
	}
	return r.renderScore(width)
}

func (r *ResultScreen) renderScore(width int) string {
	a := r.attempt
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	heading := "Paper submitted"
	if a.EndReason == scoring.EndExpired {
		heading = "Time is up"
	}
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render(heading))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s  ·  %s (%s)", a.PatternTitle, a.CrewName, a.CrewRank)))
	b.WriteString("\n\n")

	pct := a.Percentage()
	scoreStyle := theme.Correct
	if pct < 50 {
		scoreStyle = theme.Incorrect
	}
	b.WriteString(center.Render(scoreStyle.Render(
		fmt.Sprintf("%s / %s   (%.1f%%)", marks(a.Score), marks(a.TotalPossible), pct))))
	b.WriteString("\n")
	b.WriteString(center.Render(fmt.Sprintf("%s correct   %s wrong   %s unanswered",
		theme.Correct.Render(fmt.Sprint(a.CorrectCount)),
		theme.Incorrect.Render(fmt.Sprint(a.WrongCount)),
		theme.Hint.Render(fmt.Sprint(a.UnansweredCount)))))
	b.WriteString("\n\n")

	if len(a.Sections) > 0 {
		b.WriteString(center.Render(renderSections(a.Sections)))
		b.WriteString("\n")
	}

	if r.state == debriefReady && r.summary != nil {
		b.WriteString(center.Render(theme.Hint.Render("Debrief ready, press D to read it")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSections(sections []scoring.SectionResult) string {
	name := 0
	for _, s := range sections {
		name = max(name, lipgloss.Width(s.SectionName))
	}
	name = max(name, len("Section"))

	head := lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true)
	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("%-*s  %9s  %4s  %4s  %4s", name, "Section", "Score", "✓", "✗", "-")))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString(theme.Body.Render(fmt.Sprintf("%-*s  %9s  %4d  %4d  %4d",
			name, s.SectionName,
			marks(s.Score)+"/"+marks(s.TotalPossible),
			s.CorrectCount, s.WrongCount, s.UnansweredCount)))
		b.WriteString("\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func (r *ResultScreen) renderReview(width int) string {
	m := r.missed[r.review]
	var b strings.Builder

	status := "Unanswered"
	if m.Chosen != "" {
		status = "Wrong"
	}
	info := fmt.Sprintf("  Review %d/%d  ·  %s", r.review+1, len(r.missed), status)
	if m.Topic != "" {
		info += "  ·  " + m.Topic
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(max(width-8, 20)).PaddingLeft(2)
	b.WriteString(body.Render(r.choice.View()))
	b.WriteString("\n")

	for _, q := range r.attempt.Questions {
		if q.ID != m.QuestionID {
			continue
		}
		if q.Explanation != "" {
			b.WriteString(body.Render(theme.Hint.Render(q.Explanation)))
			b.WriteString("\n")
		}
		if q.PageReference != "" {
			b.WriteString(body.Render(theme.Hint.Render("See page " + q.PageReference)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *ResultScreen) renderDebrief(width, height int) string {
	switch r.state {
	case debriefPending:
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Subtitle.Render("Preparing your debrief..."))
	case debriefFailed:
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.ErrorText.Render("Debrief failed: "+r.errMsg))
	}

	d := r.summary
	if d == nil {
		return ""
	}
	wrap := lipgloss.NewStyle().Width(max(width-8, 20)).PaddingLeft(2)

	var b strings.Builder
	b.WriteString(wrap.Render(theme.Body.Bold(true).Render(d.Summary)))
	b.WriteString("\n\n")
	for _, t := range d.Topics {
		line := theme.Chosen.Render(t.Topic) + "  " + theme.Body.Render(t.Focus)
		if len(t.Pages) > 0 {
			line += theme.Hint.Render("  (pages " + strings.Join(t.Pages, ", ") + ")")
		}
		b.WriteString(wrap.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// marks formats a mark value without trailing zeros.
func marks(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*100)/100)
}
