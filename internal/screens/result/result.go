// Package result shows a recorded attempt: the score, the per-section
// breakdown, a review of missed questions and an optional debrief.
package result

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cbot-lab/cbot/internal/debrief"
	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/screen"
	"github.com/cbot-lab/cbot/internal/ui/components"
	"github.com/cbot-lab/cbot/internal/ui/layout"
)

// Debriefer generates study plans in the background.
type Debriefer interface {
	Available() bool
	Request(ctx context.Context, a scoring.TestAttempt)
	Consume() (debrief.Result, bool)
}

const pollInterval = 500 * time.Millisecond

type debriefPollMsg struct{}

type mode int

const (
	modeScore mode = iota
	modeReview
	modeDebrief
)

type debriefState int

const (
	debriefIdle debriefState = iota
	debriefPending
	debriefReady
	debriefFailed
)

// ResultScreen implements screen.Screen.
type ResultScreen struct {
	attempt *scoring.TestAttempt
	deb     Debriefer
	home    func() screen.Screen

	mode   mode
	missed []debrief.Missed
	review int
	choice components.MultiChoice

	state   debriefState
	summary *debrief.Debrief
	errMsg  string
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)
var _ screen.EscapeHandler = (*ResultScreen)(nil)

// New creates the result screen. deb may be nil when no LLM provider is
// configured.
func New(a *scoring.TestAttempt, deb Debriefer, home func() screen.Screen) *ResultScreen {
	return &ResultScreen{
		attempt: a,
		deb:     deb,
		home:    home,
		missed:  debrief.MissedQuestions(*a),
	}
}

func (r *ResultScreen) Init() tea.Cmd {
	return nil
}

func (r *ResultScreen) Title() string {
	return "Result"
}

func (r *ResultScreen) HandlesEscape() bool { return true }

func (r *ResultScreen) canDebrief() bool {
	return r.deb != nil && r.deb.Available()
}

func (r *ResultScreen) KeyHints() []layout.KeyHint {
	if r.mode == modeReview {
		return []layout.KeyHint{
			{Key: "←→", Description: "Prev/Next"},
			{Key: "Esc", Description: "Back"},
		}
	}
	if r.mode == modeDebrief {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Next examinee"}}
	if len(r.missed) > 0 {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Review"})
	}
	if r.canDebrief() {
		hints = append(hints, layout.KeyHint{Key: "D", Description: "Debrief"})
	}
	return append(hints, layout.KeyHint{Key: "Q", Description: "Quit"})
}

func (r *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case debriefPollMsg:
		return r, r.poll()
	case tea.KeyMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *ResultScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch r.mode {
	case modeReview:
		switch key {
		case "esc", "q":
			r.mode = modeScore
		case "right", "n", "tab":
			r.showMissed(r.review + 1)
		case "left", "p", "shift+tab":
			r.showMissed(r.review - 1)
		}
		return r, nil

	case modeDebrief:
		if key == "esc" || key == "q" {
			r.mode = modeScore
		}
		return r, nil
	}

	switch key {
	case "enter", "esc":
		home := r.home()
		return r, func() tea.Msg { return router.ResetScreenMsg{Screen: home} }
	case "q", "Q":
		return r, tea.Quit
	case "r", "R":
		if len(r.missed) > 0 {
			r.mode = modeReview
			r.showMissed(0)
		}
	case "d", "D":
		return r, r.requestDebrief()
	}
	return r, nil
}

func (r *ResultScreen) showMissed(i int) {
	i = max(0, min(i, len(r.missed)-1))
	r.review = i
	m := r.missed[i]
	for _, q := range r.attempt.Questions {
		if q.ID == m.QuestionID {
			r.choice = components.NewMultiChoice(q, m.Chosen)
			r.choice.Reveal = true
			return
		}
	}
}

func (r *ResultScreen) requestDebrief() tea.Cmd {
	if !r.canDebrief() {
		return nil
	}
	r.mode = modeDebrief
	switch r.state {
	case debriefPending, debriefReady:
		return nil
	}
	r.state = debriefPending
	r.errMsg = ""
	r.deb.Request(context.Background(), *r.attempt)
	return pollCmd()
}

func (r *ResultScreen) poll() tea.Cmd {
	if r.state != debriefPending {
		return nil
	}
	res, ok := r.deb.Consume()
	if !ok {
		return pollCmd()
	}
	if res.Err != nil {
		r.state = debriefFailed
		r.errMsg = res.Err.Error()
		return nil
	}
	r.state = debriefReady
	r.summary = res.Debrief
	return nil
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return debriefPollMsg{}
	})
}
