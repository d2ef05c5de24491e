package pattern

import (
	"strings"
	"testing"
)

func validPattern() ExamPattern {
	return ExamPattern{
		ID:                   "p1",
		Title:                "LP Safety Refresher",
		Subject:              "GSR",
		TotalDurationMinutes: 30,
		TotalMarks:           20,
		Sections: []Section{
			{
				Name:                       "Signals",
				QuestionCount:              6,
				MarksPerQuestion:           2,
				NegativeMarks:              0.5,
				Topics:                     []string{"Signals"},
				ConceptInterpretationCount: 3,
				ScenarioApplicationCount:   2,
				AuthorityLocationCount:     1,
			},
			{
				Name:                       "Brakes",
				QuestionCount:              4,
				MarksPerQuestion:           2,
				Topics:                     []string{"Air brake", "Vacuum brake"},
				ConceptInterpretationCount: 2,
				ScenarioApplicationCount:   1,
				AuthorityLocationCount:     1,
			},
		},
		DifficultyDistribution: DifficultyDistribution{EasyPercentage: 30, MediumPercentage: 50, HardPercentage: 20},
	}
}

func TestValidate_ValidPattern(t *testing.T) {
	issues := Validate(validPattern())
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if issues.Err() != nil {
		t.Fatal("expected nil Err for valid pattern")
	}
}

func TestValidate_CategorySumMismatchBlocks(t *testing.T) {
	p := validPattern()
	p.Sections[0].AuthorityLocationCount = 3

	issues := Validate(p)
	if !issues.Blocking() {
		t.Fatal("expected blocking issue")
	}
	if !strings.Contains(issues.Err().Error(), "category counts sum to 8") {
		t.Errorf("error should describe the sum mismatch, got: %v", issues.Err())
	}
}

func TestValidate_ReportsEveryIssue(t *testing.T) {
	p := validPattern()
	p.TotalDurationMinutes = 0
	p.DifficultyDistribution.HardPercentage = 10
	p.Sections[1].Topics = []string{"  "}
	p.TotalMarks = 99

	issues := Validate(p)
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(issues), issues)
	}

	wantFragments := []string{"totalDurationMinutes", "sum to 100", "no eligible topics", "totalMarks"}
	joined := issues.Err().Error()
	for _, w := range wantFragments {
		if !strings.Contains(joined, w) {
			t.Errorf("expected issue mentioning %q in:\n%s", w, joined)
		}
	}
}

func TestValidate_MarksMismatchIsWarningOnly(t *testing.T) {
	p := validPattern()
	p.TotalMarks = 25

	issues := Validate(p)
	if issues.Blocking() {
		t.Fatalf("marks mismatch must not block, got %v", issues)
	}
	if len(issues.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %v", issues)
	}
}

func TestValidate_NonPositiveQuotas(t *testing.T) {
	p := validPattern()
	p.Sections[0].QuestionCount = 0
	p.Sections[0].ConceptInterpretationCount = 0
	p.Sections[0].ScenarioApplicationCount = 0
	p.Sections[0].AuthorityLocationCount = 0
	p.Sections[0].MarksPerQuestion = 0
	p.Sections[0].NegativeMarks = -1
	p.TotalMarks = 8

	issues := Validate(p)
	var got []string
	for _, i := range issues {
		got = append(got, i.Message)
	}
	joined := strings.Join(got, "|")
	for _, w := range []string{"questionCount must be > 0", "marksPerQuestion must be > 0", "negativeMarks must be >= 0"} {
		if !strings.Contains(joined, w) {
			t.Errorf("missing issue %q in %v", w, got)
		}
	}
}

func TestValidate_NoSections(t *testing.T) {
	p := validPattern()
	p.Sections = nil
	p.TotalMarks = 0
	if !Validate(p).Blocking() {
		t.Fatal("pattern without sections must be blocking")
	}
}

func TestPatternTotals(t *testing.T) {
	p := validPattern()
	if p.QuestionCount() != 10 {
		t.Errorf("QuestionCount = %d, want 10", p.QuestionCount())
	}
	if p.ComputedMarks() != 20 {
		t.Errorf("ComputedMarks = %g, want 20", p.ComputedMarks())
	}
	if p.Duration().Minutes() != 30 {
		t.Errorf("Duration = %v, want 30m", p.Duration())
	}
}

func TestValidate_ZeroCategoryIsWarning(t *testing.T) {
	p := validPattern()
	p.Sections[1].ScenarioApplicationCount = 2
	p.Sections[1].AuthorityLocationCount = 0

	issues := Validate(p)
	if issues.Blocking() {
		t.Fatalf("zero category count must not block, got %v", issues)
	}
	ws := issues.Warnings()
	if len(ws) != 1 {
		t.Fatalf("expected 1 warning, got %v", issues)
	}
	if ws[0].Section != "Brakes" || !strings.Contains(ws[0].Message, "no Authority questions") {
		t.Errorf("unexpected warning %v", ws[0])
	}
}
