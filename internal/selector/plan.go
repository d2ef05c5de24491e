package selector

import (
	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/question"
)

// Cell is one (category, difficulty) quota inside a section.
type Cell struct {
	Category   question.Category
	Difficulty question.Difficulty
	Required   int
}

// SectionPlan is the list of quota cells for one section, in
// presentation order.
type SectionPlan struct {
	Section pattern.Section
	Cells   []Cell
}

// Required returns the number of questions the section draws.
func (sp SectionPlan) Required() int {
	n := 0
	for _, c := range sp.Cells {
		n += c.Required
	}
	return n
}

// Plan expands a pattern into per-section quota cells. Each category
// quota is split across tiers with the pattern's percentages. Cells
// with a zero target are kept so callers can display the full grid.
func Plan(p pattern.ExamPattern) []SectionPlan {
	plans := make([]SectionPlan, 0, len(p.Sections))
	for _, s := range p.Sections {
		sp := SectionPlan{Section: s}
		for _, cat := range question.Categories() {
			split := p.DifficultyDistribution.Split(s.CategoryCount(cat))
			for _, d := range question.Difficulties() {
				sp.Cells = append(sp.Cells, Cell{Category: cat, Difficulty: d, Required: split[d]})
			}
		}
		plans = append(plans, sp)
	}
	return plans
}
