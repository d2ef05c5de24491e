package debrief

import (
	"fmt"
	"strings"

	"github.com/cbot-lab/cbot/internal/scoring"
)

const systemPrompt = `You are an instructor preparing railway running staff for a safety rules examination. Given the questions a candidate missed, write a short, practical revision plan.`

func buildUserMessage(a scoring.TestAttempt, missed []Missed) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test: %s\n", a.PatternTitle)
	fmt.Fprintf(&b, "Rank: %s\n", a.CrewRank)
	fmt.Fprintf(&b, "Score: %.2f / %.2f (%d correct, %d wrong, %d unanswered)\n",
		a.Score, a.TotalPossible, a.CorrectCount, a.WrongCount, a.UnansweredCount)

	b.WriteString("\nMissed Questions:\n")
	for _, m := range missed {
		topic := m.Topic
		if topic == "" {
			topic = "General"
		}
		chosen := string(m.Chosen)
		if chosen == "" {
			chosen = "none"
		}
		fmt.Fprintf(&b, "- [%s] %s (chosen: %s, correct: %s", topic, m.Text, chosen, m.Correct)
		if m.PageReference != "" {
			fmt.Fprintf(&b, ", page: %s", m.PageReference)
		}
		b.WriteString(")\n")
	}

	b.WriteString(`
Instructions:
1. Summarize in 2-3 sentences where the candidate lost marks.
2. Give one entry per topic that appears above, using the topic name exactly as written.
3. For each topic say what to revise in 1-2 sentences and list only page references that appear above.
4. Use plain text. No markdown.`)

	return b.String()
}
