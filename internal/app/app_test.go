package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/cbot-lab/cbot/internal/engine"
	"github.com/cbot-lab/cbot/internal/roster"
	"github.com/cbot-lab/cbot/internal/screens/join"
	"github.com/cbot-lab/cbot/internal/screens/welcome"
	"github.com/cbot-lab/cbot/internal/store"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	ctx := context.Background()
	eng, err := engine.Open(ctx, store.NewMemory(), engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.SaveLobbies(ctx, []roster.Lobby{{ID: "l1", Name: "North Shed", Code: "NS01"}}); err != nil {
		t.Fatal(err)
	}
	return eng
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestStartsOnSplash(t *testing.T) {
	m := newAppModel(Options{Engine: newEngine(t)})
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("first screen = %T, want welcome", m.router.Active())
	}

	m, _ = update(m, tea.KeyPressMsg{Code: 'x'})
	_, cmd := update(m, tea.KeyPressMsg{Code: 'x'})
	if cmd != nil {
		t.Error("splash should transition only once")
	}
}

func TestSplashLeadsToJoin(t *testing.T) {
	m := newAppModel(Options{Engine: newEngine(t)})
	m, cmd := update(m, tea.KeyPressMsg{Code: ' '})
	if cmd == nil {
		t.Fatal("expected transition command")
	}
	m, _ = update(m, cmd())
	if _, ok := m.router.Active().(*join.JoinScreen); !ok {
		t.Fatalf("active = %T, want join", m.router.Active())
	}
}

func TestEscapeGoesToScreenThatHandlesIt(t *testing.T) {
	m := newAppModel(Options{Engine: newEngine(t), SkipSplash: true})
	j := m.router.Active().(*join.JoinScreen)

	// Move past the first step so the join screen owns Esc.
	m, _ = update(m, tea.KeyPressMsg{Code: 'n', Text: "n"})
	m, _ = update(m, tea.KeyPressMsg{Code: 's', Text: "s"})
	m, _ = update(m, tea.KeyPressMsg{Code: '0', Text: "0"})
	m, _ = update(m, tea.KeyPressMsg{Code: '1', Text: "1"})
	m, _ = update(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !j.HandlesEscape() {
		t.Fatal("join screen should be past the code step")
	}

	m, _ = update(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.router.Active() != j {
		t.Fatal("join screen should still be active")
	}
	if j.HandlesEscape() {
		t.Error("Esc should have stepped the join screen back")
	}
	if m.router.Depth() != 1 {
		t.Errorf("depth = %d", m.router.Depth())
	}
}

func TestViewShowsHeaderAndHints(t *testing.T) {
	m := newAppModel(Options{Engine: newEngine(t), SkipSplash: true})
	if got := m.render(); got != "" {
		t.Error("nothing should render before the window size is known")
	}

	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.render()
	for _, want := range []string{"CBOT", "Join a Test", "Continue"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := newAppModel(Options{Engine: newEngine(t), SkipSplash: true})
	_, cmd := update(m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
