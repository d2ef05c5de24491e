// Package welcome is the splash shown before the join screen.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cbot-lab/cbot/internal/router"
	"github.com/cbot-lab/cbot/internal/screen"
	"github.com/cbot-lab/cbot/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 3000 * time.Millisecond
)

// signalArt is a three-aspect colour light signal; %s marks each lamp.
var signalArt = []string{
	"  ╭─────╮",
	"  │ %s │",
	"  │ %s │",
	"  │ %s │",
	"  ╰──┬──╯",
	"     │",
	"     │",
	"  ───┴───",
}

// aspects cycles Danger, Caution, Proceed.
var aspects = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(theme.Error),
	lipgloss.NewStyle().Foreground(theme.Accent),
	lipgloss.NewStyle().Foreground(theme.Success),
}

type tickMsg time.Time

// WelcomeScreen shows a splash animation before moving on.
type WelcomeScreen struct {
	next         func() screen.Screen
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that will transition to the screen built by next.
func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

// lit returns which lamp is on, or -1 while the signal is dark.
func (w *WelcomeScreen) lit() int {
	if w.elapsed < phase1End {
		return -1
	}
	if w.elapsed >= phase2End {
		return len(aspects) - 1
	}
	return (w.tickCount / 3) % len(aspects)
}

func (w *WelcomeScreen) renderSignal() string {
	frame := lipgloss.NewStyle().Foreground(theme.TextDim)
	dark := lipgloss.NewStyle().Foreground(theme.Border)
	on := w.lit()

	lamps := []int{0, 1, 2}
	var lines []string
	for _, line := range signalArt {
		if !strings.Contains(line, "%s") {
			lines = append(lines, frame.Render(line))
			continue
		}
		i := lamps[0]
		lamps = lamps[1:]
		lamp := dark.Render("○")
		if i == on {
			lamp = aspects[i].Bold(true).Render("●")
		}
		parts := strings.SplitN(line, "%s", 2)
		lines = append(lines, frame.Render(parts[0])+lamp+frame.Render(parts[1]))
	}
	return strings.Join(lines, "\n")
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{w.renderSignal()}

	if w.elapsed >= phase2End {
		tagline := lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Crew rules and technical knowledge test")
		hint := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render("press any key to continue")
		sections = append(sections, "", RenderBanner(width), "", tagline, "", hint)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
