// Package join is where an examinee identifies themselves and picks the
// test to sit.
package join

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/cbot-lab/cbot/internal/engine"
	"github.com/cbot-lab/cbot/internal/pattern"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/screen"
	"github.com/cbot-lab/cbot/internal/selector"
	"github.com/cbot-lab/cbot/internal/session"
	"github.com/cbot-lab/cbot/internal/ui/components"
	"github.com/cbot-lab/cbot/internal/ui/layout"
)

// Engine is what the join screen needs from the engine.
type Engine interface {
	Lobbies() []roster.Lobby
	Join(code, memberID string) (roster.Lobby, roster.CrewMember, error)
	Patterns() []pattern.ExamPattern
	Pattern(id string) (pattern.ExamPattern, error)
	StartSession(ctx context.Context, patternID, lobbyID, crewID string, seed uint64) (*session.Session, error)
}

// Options configures the join flow.
type Options struct {
	// PatternID skips the pattern menu when set.
	PatternID string
	// Seed pins question selection. Zero draws a fresh seed per session.
	Seed uint64
	// Exam builds the screen for a started session.
	Exam func(s *session.Session, p pattern.ExamPattern) screen.Screen
}

type phase int

const (
	phaseCode phase = iota
	phaseMember
	phasePattern
	phaseConfirm
)

// JoinScreen implements screen.Screen.
type JoinScreen struct {
	eng  Engine
	opts Options

	phase   phase
	input   components.TextInput
	menu    components.Menu
	lobby   roster.Lobby
	crew    roster.CrewMember
	pattern pattern.ExamPattern
	errMsg  string
}

var _ screen.Screen = (*JoinScreen)(nil)
var _ screen.KeyHintProvider = (*JoinScreen)(nil)
var _ screen.EscapeHandler = (*JoinScreen)(nil)

// patternChosenMsg is sent when a pattern is picked from the menu.
type patternChosenMsg struct {
	ID string
}

// New creates the join screen.
func New(eng Engine, opts Options) *JoinScreen {
	return &JoinScreen{
		eng:   eng,
		opts:  opts,
		input: components.NewTextInput("Lobby code", true, 16),
	}
}

func (j *JoinScreen) Init() tea.Cmd {
	return j.input.Init()
}

func (j *JoinScreen) Title() string {
	return "Join a Test"
}

// HandlesEscape is true once past the first step; Esc then goes back one
// step instead of leaving the screen.
func (j *JoinScreen) HandlesEscape() bool {
	return j.phase != phaseCode
}

func (j *JoinScreen) KeyHints() []layout.KeyHint {
	switch j.phase {
	case phasePattern:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseConfirm:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseMember:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (j *JoinScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case patternChosenMsg:
		return j, j.choosePattern(msg.ID)
	case tea.KeyMsg:
		return j.handleKey(msg)
	}

	if j.phase == phaseCode || j.phase == phaseMember {
		var cmd tea.Cmd
		j.input, cmd = j.input.Update(msg)
		return j, cmd
	}
	return j, nil
}

func (j *JoinScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		return j, j.back()
	}

	switch j.phase {
	case phaseCode, phaseMember:
		if key == "enter" {
			return j, j.submitInput()
		}
		j.errMsg = ""
		var cmd tea.Cmd
		j.input, cmd = j.input.Update(msg)
		return j, cmd

	case phasePattern:
		var cmd tea.Cmd
		j.menu, cmd = j.menu.Update(msg)
		return j, cmd

	case phaseConfirm:
		if key == "enter" {
			return j, j.start()
		}
	}
	return j, nil
}

func (j *JoinScreen) submitInput() tea.Cmd {
	value := j.input.Value()
	if value == "" {
		return nil
	}

	if j.phase == phaseCode {
		lobby, ok := roster.FindLobbyByCode(j.eng.Lobbies(), value)
		j.input.Submit(ok)
		if !ok {
			j.errMsg = fmt.Sprintf("No lobby uses the code %q.", value)
			return nil
		}
		j.lobby = lobby
		j.errMsg = ""
		j.phase = phaseMember
		j.input = components.NewTextInput("Member ID", true, 24)
		return j.input.Init()
	}

	_, crew, err := j.eng.Join(j.lobby.Code, value)
	j.input.Submit(err == nil)
	if err != nil {
		j.errMsg = fmt.Sprintf("%s is not on the %s roster.", value, j.lobby.Name)
		return nil
	}
	j.crew = crew
	j.errMsg = ""

	if j.opts.PatternID != "" {
		return j.choosePattern(j.opts.PatternID)
	}
	return j.showPatterns()
}

func (j *JoinScreen) showPatterns() tea.Cmd {
	patterns := j.eng.Patterns()
	if len(patterns) == 0 {
		j.errMsg = "No test patterns are configured. Ask an administrator to import one."
		return nil
	}
	items := make([]components.MenuItem, 0, len(patterns))
	for _, p := range patterns {
		id := p.ID
		items = append(items, components.MenuItem{
			Label:  p.Title,
			Detail: fmt.Sprintf("%d questions, %d min", p.QuestionCount(), p.TotalDurationMinutes),
			Action: func() tea.Cmd {
				return func() tea.Msg { return patternChosenMsg{ID: id} }
			},
		})
	}
	j.menu = components.NewMenu(items)
	j.phase = phasePattern
	return nil
}

func (j *JoinScreen) choosePattern(id string) tea.Cmd {
	p, err := j.eng.Pattern(id)
	if err != nil {
		j.errMsg = fmt.Sprintf("Test pattern %q was not found.", id)
		return nil
	}
	j.pattern = p
	j.errMsg = ""
	j.phase = phaseConfirm
	return nil
}

func (j *JoinScreen) start() tea.Cmd {
	seed := j.opts.Seed
	if seed == 0 {
		seed = selector.NewSeed()
	}
	s, err := j.eng.StartSession(context.Background(), j.pattern.ID, j.lobby.ID, j.crew.ID, seed)
	if err != nil {
		j.errMsg = startError(err)
		return nil
	}
	exam := j.opts.Exam(s, j.pattern)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: exam}
	}
}

func startError(err error) string {
	switch {
	case errors.Is(err, engine.ErrSessionActive):
		return "You already have a test in progress."
	case errors.Is(err, engine.ErrNoPool):
		return "No question bank is loaded."
	}
	return "Could not start the test: " + err.Error()
}

// back steps to the previous phase.
func (j *JoinScreen) back() tea.Cmd {
	j.errMsg = ""
	switch j.phase {
	case phaseMember:
		j.phase = phaseCode
		j.input = components.NewTextInput("Lobby code", true, 16)
		j.input.Model.SetValue(j.lobby.Code)
		return j.input.Init()
	case phasePattern:
		j.phase = phaseMember
		j.input = components.NewTextInput("Member ID", true, 24)
		j.input.Model.SetValue(j.crew.MemberID)
		return j.input.Init()
	case phaseConfirm:
		if j.opts.PatternID != "" {
			j.phase = phaseMember
			j.input = components.NewTextInput("Member ID", true, 24)
			j.input.Model.SetValue(j.crew.MemberID)
			return j.input.Init()
		}
		return j.showPatterns()
	}
	return nil
}
