package result

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cbot-lab/cbot/internal/debrief"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/screen"
)

type homeStub struct{}

func (s *homeStub) Init() tea.Cmd                           { return nil }
func (s *homeStub) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *homeStub) View(int, int) string                    { return "home" }
func (s *homeStub) Title() string                           { return "home" }

// fakeDebriefer hands back result after the first Consume call.
type fakeDebriefer struct {
	available bool
	requests  int
	polls     int
	result    debrief.Result
}

func (f *fakeDebriefer) Available() bool { return f.available }

func (f *fakeDebriefer) Request(context.Context, scoring.TestAttempt) { f.requests++ }

func (f *fakeDebriefer) Consume() (debrief.Result, bool) {
	f.polls++
	if f.polls < 2 {
		return debrief.Result{}, false
	}
	return f.result, true
}

func attempt() *scoring.TestAttempt {
	q := func(id, topic string) question.Question {
		return question.Question{
			ID: id, Text: "Question " + id, Topic: topic, PageReference: "12",
			Options:       question.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectAnswer: question.OptionA, Category: question.CategoryConcept,
			Explanation: "Rule 3.6 applies.",
		}
	}
	return &scoring.TestAttempt{
		ID: "a1", PatternTitle: "Signals refresher", CrewName: "R. Kumar", CrewRank: "LP",
		Score: 1.5, TotalPossible: 6, CorrectCount: 1, WrongCount: 1, UnansweredCount: 1,
		CompletedAt: time.Date(2026, 5, 4, 9, 5, 0, 0, time.UTC),
		EndReason:   scoring.EndSubmitted,
		Questions:   []question.Question{q("q1", "Signals"), q("q2", "Signals"), q("q3", "Brakes")},
		Answers:     map[string]question.Option{"q1": question.OptionA, "q2": question.OptionC},
		Sections: []scoring.SectionResult{{
			SectionName: "Signals", Score: 1.5, TotalPossible: 6,
			CorrectCount: 1, WrongCount: 1, UnansweredCount: 1,
		}},
	}
}

func press(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r} }

func TestResult_ScoreView(t *testing.T) {
	r := New(attempt(), nil, func() screen.Screen { return &homeStub{} })
	view := r.View(100, 30)
	for _, want := range []string{"Paper submitted", "1.5 / 6", "25.0%", "Signals"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	for _, h := range r.KeyHints() {
		if h.Key == "D" {
			t.Error("debrief hint shown without a provider")
		}
	}
}

func TestResult_ExpiredHeading(t *testing.T) {
	a := attempt()
	a.EndReason = scoring.EndExpired
	r := New(a, nil, func() screen.Screen { return &homeStub{} })
	if !strings.Contains(r.View(100, 30), "Time is up") {
		t.Error("expired attempts should say time is up")
	}
}

func TestResult_Review(t *testing.T) {
	r := New(attempt(), nil, func() screen.Screen { return &homeStub{} })
	r.Update(press('r'))
	if r.mode != modeReview || r.choice.QuestionID != "q2" {
		t.Fatalf("mode = %d, reviewing %q", r.mode, r.choice.QuestionID)
	}
	if !r.choice.Reveal || r.choice.Chosen != question.OptionC {
		t.Error("review should reveal the keyed answer next to the chosen one")
	}
	if !strings.Contains(r.View(100, 30), "Rule 3.6 applies.") {
		t.Error("review should show the explanation")
	}

	r.Update(press(tea.KeyRight))
	if r.choice.QuestionID != "q3" || !strings.Contains(r.View(100, 30), "Unanswered") {
		t.Errorf("reviewing %q", r.choice.QuestionID)
	}
	r.Update(press(tea.KeyRight))
	if r.review != 1 {
		t.Errorf("review index = %d, want clamped at 1", r.review)
	}

	r.Update(press(tea.KeyEscape))
	if r.mode != modeScore {
		t.Error("esc should leave the review")
	}
}

func TestResult_EnterStartsOver(t *testing.T) {
	r := New(attempt(), nil, func() screen.Screen { return &homeStub{} })
	_, cmd := r.Update(press(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.ResetScreenMsg); !ok {
		t.Error("expected ResetScreenMsg")
	}
}

func TestResult_Debrief(t *testing.T) {
	deb := &fakeDebriefer{available: true, result: debrief.Result{Debrief: &debrief.Debrief{
		Summary: "Revise stop signals.",
		Topics:  []debrief.TopicNote{{Topic: "Signals", Focus: "Aspects", Pages: []string{"12"}}},
	}}}
	r := New(attempt(), deb, func() screen.Screen { return &homeStub{} })

	_, cmd := r.Update(press('d'))
	if cmd == nil || deb.requests != 1 || r.state != debriefPending {
		t.Fatalf("requests = %d, state = %d", deb.requests, r.state)
	}
	if !strings.Contains(r.View(100, 30), "Preparing") {
		t.Error("expected pending view")
	}

	if _, cmd := r.Update(debriefPollMsg{}); cmd == nil {
		t.Error("should keep polling while not ready")
	}
	if _, cmd := r.Update(debriefPollMsg{}); cmd != nil {
		t.Error("should stop polling once ready")
	}
	view := r.View(100, 30)
	if !strings.Contains(view, "Revise stop signals.") || !strings.Contains(view, "pages 12") {
		t.Errorf("debrief view = %q", view)
	}

	// Asking again reuses the finished debrief.
	r.Update(press(tea.KeyEscape))
	r.Update(press('d'))
	if deb.requests != 1 {
		t.Errorf("requests = %d, want 1", deb.requests)
	}
}

func TestResult_DebriefFailure(t *testing.T) {
	deb := &fakeDebriefer{available: true, result: debrief.Result{Err: errors.New("rate limited")}}
	r := New(attempt(), deb, func() screen.Screen { return &homeStub{} })
	r.Update(press('d'))
	r.Update(debriefPollMsg{})
	r.Update(debriefPollMsg{})
	if r.state != debriefFailed || !strings.Contains(r.View(100, 30), "rate limited") {
		t.Errorf("state = %d", r.state)
	}

	// A failed debrief can be requested again.
	r.Update(press(tea.KeyEscape))
	r.Update(press('d'))
	if deb.requests != 2 {
		t.Errorf("requests = %d, want 2", deb.requests)
	}
}
