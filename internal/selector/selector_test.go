package selector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/pool"
	"github.com/cbot-lab/cbot/internal/question"
)

// bank builds perCell questions for every (topic, category, difficulty).
func bank(perCell int, topics ...string) []question.Question {
	var qs []question.Question
	for _, topic := range topics {
		for _, c := range question.Categories() {
			for _, d := range question.Difficulties() {
				for i := 0; i < perCell; i++ {
					qs = append(qs, question.Question{
						ID:            fmt.Sprintf("%s-%s-%s-%02d", topic, c, d, i),
						Text:          "q",
						CorrectAnswer: question.OptionA,
						Category:      c,
						Difficulty:    d,
						Topic:         topic,
					})
				}
			}
		}
	}
	return qs
}

func testPattern() pattern.ExamPattern {
	return pattern.ExamPattern{
		ID:                   "p1",
		Title:                "Refresher",
		TotalDurationMinutes: 20,
		TotalMarks:           36,
		Sections: []pattern.Section{
			{
				Name:                       "Signals",
				QuestionCount:              10,
				MarksPerQuestion:           2,
				NegativeMarks:              0.5,
				Topics:                     []string{"Signals"},
				ConceptInterpretationCount: 5,
				ScenarioApplicationCount:   3,
				AuthorityLocationCount:     2,
			},
			{
				Name:                       "Mixed",
				QuestionCount:              8,
				MarksPerQuestion:           2,
				Topics:                     []string{"Signals", "Brakes"},
				ConceptInterpretationCount: 4,
				ScenarioApplicationCount:   4,
			},
		},
		DifficultyDistribution: pattern.DifficultyDistribution{EasyPercentage: 30, MediumPercentage: 50, HardPercentage: 20},
	}
}

func ids(qs []question.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestSelect_CountAndNoDuplicates(t *testing.T) {
	p := testPattern()
	sel, err := Select(p, pool.New(bank(10, "Signals", "Brakes")), 42)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.Questions) != p.QuestionCount() {
		t.Fatalf("selected %d, want %d", len(sel.Questions), p.QuestionCount())
	}
	seen := make(map[string]bool)
	for _, q := range sel.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelect_Deterministic(t *testing.T) {
	p := testPattern()
	idx := pool.New(bank(10, "Signals", "Brakes"))

	a, err := Select(p, idx, 7)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Select(p, idx, 7)
	if err != nil {
		t.Fatal(err)
	}
	ia, ib := ids(a.Questions), ids(b.Questions)
	for i := range ia {
		if ia[i] != ib[i] {
			t.Fatalf("selection differs at %d: %s vs %s", i, ia[i], ib[i])
		}
	}

	c, err := Select(p, idx, 8)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i, id := range ids(c.Questions) {
		if id != ia[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical selections; draw is not seeded")
	}
}

func TestSelect_QuotaFidelity(t *testing.T) {
	p := testPattern()
	sel, err := Select(p, pool.New(bank(10, "Signals", "Brakes")), 99)
	if err != nil {
		t.Fatal(err)
	}

	byID := make(map[string]question.Question)
	for _, q := range sel.Questions {
		byID[q.ID] = q
	}

	for i, sp := range Plan(p) {
		alloc := sel.Allocations[i]
		if alloc.SectionName != sp.Section.Name {
			t.Fatalf("allocation %d is %q, want %q", i, alloc.SectionName, sp.Section.Name)
		}
		got := make(map[Cell]int)
		for _, id := range alloc.QuestionIDs {
			q := byID[id]
			got[Cell{Category: q.Category, Difficulty: q.Difficulty}]++
		}
		for _, c := range sp.Cells {
			key := Cell{Category: c.Category, Difficulty: c.Difficulty}
			if got[key] != c.Required {
				t.Errorf("section %q cell %s/%s: got %d, want %d",
					sp.Section.Name, c.Category, c.Difficulty, got[key], c.Required)
			}
		}
	}
}

func TestSelect_PresentationOrder(t *testing.T) {
	p := testPattern()
	sel, err := Select(p, pool.New(bank(10, "Signals", "Brakes")), 3)
	if err != nil {
		t.Fatal(err)
	}

	rank := map[question.Category]int{
		question.CategoryConcept:   0,
		question.CategoryScenario:  1,
		question.CategoryAuthority: 2,
	}
	offset := 0
	for _, alloc := range sel.Allocations {
		section := sel.Questions[offset : offset+len(alloc.QuestionIDs)]
		for i := 1; i < len(section); i++ {
			if rank[section[i].Category] < rank[section[i-1].Category] {
				t.Fatalf("section %q not in category order at %d", alloc.SectionName, i)
			}
		}
		for i, q := range section {
			if q.ID != alloc.QuestionIDs[i] {
				t.Fatalf("allocation ids out of step with question order")
			}
		}
		offset += len(alloc.QuestionIDs)
	}
}

func TestSelect_InsufficientPoolNamesCell(t *testing.T) {
	p := testPattern()
	// Concept quota 5 splits 2/2/1, so concept/medium needs two.
	plan := Plan(p)
	var need int
	for _, c := range plan[0].Cells {
		if c.Category == question.CategoryConcept && c.Difficulty == question.Medium {
			need = c.Required
		}
	}
	if need < 2 {
		t.Fatalf("test assumes concept/medium needs >= 2, got %d", need)
	}

	var qs []question.Question
	for _, q := range bank(10, "Signals", "Brakes") {
		if q.Topic == "Signals" && q.Category == question.CategoryConcept && q.Difficulty == question.Medium {
			continue
		}
		qs = append(qs, q)
	}
	qs = append(qs, question.Question{ID: "only-one", Topic: "Signals", Category: question.CategoryConcept, Difficulty: question.Medium})

	sel, err := Select(p, pool.New(qs), 1)
	if sel != nil {
		t.Fatal("selection must not return a partial list")
	}
	var ipe *InsufficientPoolError
	if !errors.As(err, &ipe) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if ipe.Section != "Signals" || ipe.Category != question.CategoryConcept || ipe.Difficulty != question.Medium {
		t.Errorf("wrong cell reported: %+v", ipe)
	}
	if ipe.Required != need || ipe.Available != 1 {
		t.Errorf("required/available = %d/%d, want %d/1", ipe.Required, ipe.Available, need)
	}
}

func TestSelect_SharedTopicsNeverReuseQuestions(t *testing.T) {
	// Two sections over the same single topic; the pool holds exactly
	// enough for both, so any reuse would starve the second section.
	p := pattern.ExamPattern{
		ID:                   "shared",
		TotalDurationMinutes: 10,
		TotalMarks:           4,
		Sections: []pattern.Section{
			{Name: "A", QuestionCount: 2, MarksPerQuestion: 1, Topics: []string{"Signals"}, ConceptInterpretationCount: 2},
			{Name: "B", QuestionCount: 2, MarksPerQuestion: 1, Topics: []string{"Signals"}, ConceptInterpretationCount: 2},
		},
		DifficultyDistribution: pattern.DifficultyDistribution{MediumPercentage: 100},
	}
	var qs []question.Question
	for i := 0; i < 4; i++ {
		qs = append(qs, question.Question{ID: fmt.Sprintf("s%d", i), Topic: "Signals", Category: question.CategoryConcept, Difficulty: question.Medium})
	}

	sel, err := Select(p, pool.New(qs), 5)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(sel.Questions) != 4 {
		t.Fatalf("len = %d, want 4", len(sel.Questions))
	}

	_, err = Select(p, pool.New(qs[:3]), 5)
	var ipe *InsufficientPoolError
	if !errors.As(err, &ipe) || ipe.Section != "B" || ipe.Available != 1 {
		t.Fatalf("expected section B to be short by one, got %v", err)
	}
}

func TestSelect_RejectsStructurallyInvalidPattern(t *testing.T) {
	p := testPattern()
	p.Sections[0].AuthorityLocationCount = 9

	_, err := Select(p, pool.New(bank(10, "Signals", "Brakes")), 1)
	var verr *pattern.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.PatternID != "p1" {
		t.Errorf("PatternID = %q, want p1", verr.PatternID)
	}
}

func TestSelect_WarningsDoNotBlock(t *testing.T) {
	p := testPattern()
	p.TotalMarks = 1
	if _, err := Select(p, pool.New(bank(10, "Signals", "Brakes")), 1); err != nil {
		t.Fatalf("warning-level issues must not block selection: %v", err)
	}
}

func TestPlan_SplitsEachCategory(t *testing.T) {
	plan := Plan(testPattern())
	if len(plan) != 2 {
		t.Fatalf("len = %d, want 2", len(plan))
	}
	// Concept quota 5 at 30/50/20 -> 1.5/2.5/1.0 -> floors 1/2/1, one
	// unit left, tie between easy and medium goes to easy.
	want := []int{2, 2, 1}
	for i, d := range question.Difficulties() {
		c := plan[0].Cells[i]
		if c.Category != question.CategoryConcept || c.Difficulty != d {
			t.Fatalf("cell %d = %s/%s", i, c.Category, c.Difficulty)
		}
		if c.Required != want[i] {
			t.Errorf("concept/%s = %d, want %d", d, c.Required, want[i])
		}
	}
	if plan[0].Required() != 10 || plan[1].Required() != 8 {
		t.Errorf("section totals = %d/%d, want 10/8", plan[0].Required(), plan[1].Required())
	}
}
