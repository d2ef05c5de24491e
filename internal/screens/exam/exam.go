// Package exam is the screen an examinee answers the paper on.
package exam

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cbot-lab/cbot/internal/engine"
	"github.com/cbot-lab/cbot/internal/question"
	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/screen"
	"github.com/cbot-lab/cbot/internal/session"
	"github.com/cbot-lab/cbot/internal/ui/components"
	"github.com/cbot-lab/cbot/internal/ui/layout"
)

// Engine is what the exam screen needs from the engine.
type Engine interface {
	RecordAnswer(sessionID, questionID string, opt question.Option) error
	ClearAnswer(sessionID, questionID string) error
	EndSession(ctx context.Context, sessionID string, mode engine.EndMode) (*scoring.TestAttempt, error)
}

// Next builds the screens shown after the exam.
type Next struct {
	// Result is shown once an attempt has been recorded.
	Result func(a *scoring.TestAttempt) screen.Screen
	// Home is shown after a cancelled session.
	Home func() screen.Screen
}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmSubmit
	confirmCancel
)

// ExamScreen implements screen.Screen for a running session.
type ExamScreen struct {
	eng      Engine
	sess     *session.Session
	title    string
	next     Next
	sections map[string]string

	current int
	choice  components.MultiChoice
	confirm confirmKind
	ending  bool
	errMsg  string
}

var _ screen.Screen = (*ExamScreen)(nil)
var _ screen.KeyHintProvider = (*ExamScreen)(nil)
var _ screen.StatusProvider = (*ExamScreen)(nil)
var _ screen.EscapeHandler = (*ExamScreen)(nil)

// New creates the exam screen for a started session.
func New(eng Engine, s *session.Session, patternTitle string, next Next) *ExamScreen {
	sections := make(map[string]string)
	for _, a := range s.Selection().Allocations {
		for _, id := range a.QuestionIDs {
			sections[id] = a.SectionName
		}
	}
	e := &ExamScreen{eng: eng, sess: s, title: patternTitle, next: next, sections: sections}
	e.load(0)
	return e
}

func (e *ExamScreen) Init() tea.Cmd {
	return tickCmd()
}

func (e *ExamScreen) Title() string {
	return e.title
}

func (e *ExamScreen) HandlesEscape() bool { return true }

func (e *ExamScreen) Status() string {
	_, crew := e.sess.Examinee()
	return crew.MemberID + "  " + layout.RenderCountdown(e.sess.Remaining())
}

func (e *ExamScreen) KeyHints() []layout.KeyHint {
	if e.confirm != confirmNone {
		return []layout.KeyHint{
			{Key: "Y", Description: "Confirm"},
			{Key: "N", Description: "Back"},
		}
	}
	if e.errMsg != "" && e.ending {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
		}
	}
	return []layout.KeyHint{
		{Key: "A-D", Description: "Answer"},
		{Key: "X", Description: "Clear"},
		{Key: "←→", Description: "Prev/Next"},
		{Key: "S", Description: "Submit"},
		{Key: "Esc", Description: "Abandon"},
	}
}

func (e *ExamScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return e.handleTick()

	case components.AnswerChangedMsg:
		return e.handleAnswer(msg)

	case answerFailedMsg:
		return e.handleAnswerFailed(msg)

	case endedMsg:
		return e.handleEnded(msg)

	case tea.KeyMsg:
		return e.handleKey(msg)
	}
	return e, nil
}

func (e *ExamScreen) handleTick() (screen.Screen, tea.Cmd) {
	if e.ending {
		return e, nil
	}
	if e.sess.Poll() == session.StateExpired {
		return e, e.end(engine.EndExpire)
	}
	return e, tickCmd()
}

func (e *ExamScreen) handleAnswer(msg components.AnswerChangedMsg) (screen.Screen, tea.Cmd) {
	id := e.sess.ID()
	return e, func() tea.Msg {
		var err error
		if msg.Option == "" {
			err = e.eng.ClearAnswer(id, msg.QuestionID)
		} else {
			err = e.eng.RecordAnswer(id, msg.QuestionID, msg.Option)
		}
		if err != nil {
			return answerFailedMsg{Err: err}
		}
		return nil
	}
}

func (e *ExamScreen) handleAnswerFailed(msg answerFailedMsg) (screen.Screen, tea.Cmd) {
	var serr *session.StateError
	if errors.As(msg.Err, &serr) && serr.State == session.StateExpired {
		return e, e.end(engine.EndExpire)
	}
	e.errMsg = msg.Err.Error()
	e.load(e.current)
	return e, nil
}

func (e *ExamScreen) handleEnded(msg endedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		e.errMsg = "Could not save the attempt: " + msg.Err.Error()
		return e, nil
	}
	if msg.Attempt == nil {
		home := e.next.Home()
		return e, func() tea.Msg { return router.ResetScreenMsg{Screen: home} }
	}
	result := e.next.Result(msg.Attempt)
	return e, func() tea.Msg { return router.ReplaceScreenMsg{Screen: result} }
}

func (e *ExamScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if e.ending {
		if e.errMsg != "" && (key == "r" || key == "R") {
			e.errMsg = ""
			return e, e.end(e.endMode())
		}
		return e, nil
	}

	if e.confirm != confirmNone {
		switch key {
		case "y", "Y":
			mode := engine.EndSubmit
			if e.confirm == confirmCancel {
				mode = engine.EndCancel
			}
			e.confirm = confirmNone
			return e, e.end(mode)
		case "n", "N", "esc":
			e.confirm = confirmNone
		}
		return e, nil
	}

	e.errMsg = ""
	switch key {
	case "esc":
		e.confirm = confirmCancel
		return e, nil
	case "s", "S":
		e.confirm = confirmSubmit
		return e, nil
	case "right", "n", "tab", "pgdown":
		e.load(e.current + 1)
		return e, nil
	case "left", "p", "shift+tab", "pgup":
		e.load(e.current - 1)
		return e, nil
	case "home":
		e.load(0)
		return e, nil
	case "end":
		e.load(len(e.sess.Selection().Questions) - 1)
		return e, nil
	}

	var cmd tea.Cmd
	e.choice, cmd = e.choice.Update(msg)
	return e, cmd
}

// load shows question i, clamped to the paper.
func (e *ExamScreen) load(i int) {
	qs := e.sess.Selection().Questions
	if len(qs) == 0 {
		return
	}
	i = max(0, min(i, len(qs)-1))
	e.current = i
	chosen, _ := e.sess.Answer(qs[i].ID)
	e.choice = components.NewMultiChoice(qs[i], chosen)
}

// endMode is the mode to retry with after a failed save.
func (e *ExamScreen) endMode() engine.EndMode {
	switch e.sess.State() {
	case session.StateExpired:
		return engine.EndExpire
	case session.StateCancelled:
		return engine.EndCancel
	}
	return engine.EndSubmit
}

func (e *ExamScreen) end(mode engine.EndMode) tea.Cmd {
	e.ending = true
	id := e.sess.ID()
	return func() tea.Msg {
		a, err := e.eng.EndSession(context.Background(), id, mode)
		return endedMsg{Attempt: a, Err: err}
	}
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
