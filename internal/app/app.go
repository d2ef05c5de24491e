// Package app is the root of the test-taking terminal UI.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/debrief"
	"github.com/cbot-lab/cbot/internal/engine"
	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/scoring"
	"github.com/cbot-lab/cbot/internal/screen"
	"github.com/cbot-lab/cbot/internal/screens/exam"
	"github.com/cbot-lab/cbot/internal/screens/join"
	"github.com/cbot-lab/cbot/internal/screens/result"
	"github.com/cbot-lab/cbot/internal/screens/welcome"
	"github.com/cbot-lab/cbot/internal/session"
	"github.com/cbot-lab/cbot/internal/ui/layout"
)

// Options configures the UI.
type Options struct {
	Engine *engine.Engine
	// Debrief is optional; without it the result screen offers no debrief.
	Debrief *debrief.Service
	// PatternID fixes the test every examinee sits.
	PatternID string
	// Seed pins question selection, for rehearsals.
	Seed uint64
	// SkipSplash starts on the join screen.
	SkipSplash bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel wires the screens together and picks the first one.
func newAppModel(opts Options) AppModel {
	var deb result.Debriefer
	if opts.Debrief != nil {
		deb = opts.Debrief
	}

	// The screens form a cycle (join, exam, result, join), so each is
	// built through a factory.
	var newJoin func() screen.Screen
	newResult := func(a *scoring.TestAttempt) screen.Screen {
		return result.New(a, deb, newJoin)
	}
	newExam := func(s *session.Session, p pattern.ExamPattern) screen.Screen {
		return exam.New(opts.Engine, s, p.Title, exam.Next{Result: newResult, Home: newJoin})
	}
	newJoin = func() screen.Screen {
		return join.New(opts.Engine, join.Options{
			PatternID: opts.PatternID,
			Seed:      opts.Seed,
			Exam:      newExam,
		})
	}

	var first screen.Screen
	if opts.SkipSplash {
		first = newJoin()
	} else {
		first = welcome.New(newJoin)
	}
	return AppModel{router: router.New(first)}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the frame, or nothing until the window size is known.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}
	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
