// Package tui is the interactive picker: a full-screen list of the
// processes bound to ports, with filtering, multi-select and a
// confirm-then-kill flow that runs through the termination engine.
package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"killport/internal/kill"
	"killport/internal/proc"
	"killport/pkg/model"
)

const (
	refreshInterval = 2 * time.Second
	statusDuration  = 3 * time.Second
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c0c0"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
			Background(lipgloss.Color("#5f00d7")). // Purple
			Bold(true)

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")) // Amber

	checkboxChecked   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffdf87")).Render("[x]")
	checkboxUnchecked = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676")).Render("[ ]")

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			MarginTop(1)

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf5f")). // Orange-amber
			Bold(true).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22aa22")). // Green
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")). // Soft red
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")).
			Italic(true).
			MarginTop(2)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22aa22")) // Green
)

// Model is the picker's Elm-architecture state.
type Model struct {
	engine   *kill.Engine
	list     func(port uint16, anyState bool) ([]model.Candidate, error)
	anyState bool
	selfPID  int

	candidates []model.Candidate
	cursor     int
	selected   map[int]bool // PID -> selected

	input     textinput.Model
	searching bool

	confirming bool
	toKill     []model.Candidate // batch being confirmed or killed
	killIndex  int
	failed     int

	statusMessage string
	statusTime    time.Time
	lastError     error

	width  int
	height int
}

// New builds the initial model around a ready-to-use engine.
func New(eng *kill.Engine, anyState bool) Model {
	ti := textinput.New()
	ti.Placeholder = "port, pid or name..."
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = promptStyle
	ti.Blur()

	return Model{
		engine:   eng,
		list:     proc.Candidates,
		anyState: anyState,
		selfPID:  eng.SelfPID,
		selected: make(map[int]bool),
		input:    ti,
	}
}

// Run starts the full-screen picker and blocks until it exits.
func Run(eng *kill.Engine, anyState bool) error {
	if os.Getenv("COLORTERM") == "" {
		os.Setenv("COLORTERM", "truecolor") //nolint:errcheck
	}

	p := tea.NewProgram(New(eng, anyState), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.refresh(),
		m.tick(),
	)
}
