package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // " 100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = max(0, min(filled, barWidth))

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowPercent {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}

	return result
}

// QuestionStrip is a one-line map of the paper: one cell per question,
// filled when answered, with the current question highlighted.
type QuestionStrip struct {
	Answered []bool
	Current  int
}

// View renders the strip, wrapping to width.
func (q QuestionStrip) View(width int) string {
	if width < 2 {
		width = 2
	}
	perLine := width / 2

	var b strings.Builder
	for i, done := range q.Answered {
		if i > 0 && i%perLine == 0 {
			b.WriteString("\n")
		}
		cell := "□"
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if done {
			cell = "■"
			style = lipgloss.NewStyle().Foreground(theme.Success)
		}
		if i == q.Current {
			style = style.Foreground(theme.Accent).Bold(true)
		}
		b.WriteString(style.Render(cell) + " ")
	}
	return strings.TrimRight(b.String(), " ")
}
