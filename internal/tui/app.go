// Package tui provides a terminal user interface.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/xrayboard/internal/model"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/util"
)

// App is the main TUI application.
type App struct {
	agg    *usage.Aggregator
	config *util.Config
}

// NewApp creates a new TUI application.
func NewApp(agg *usage.Aggregator, cfg *util.Config) *App {
	return &App{
		agg:    agg,
		config: cfg,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(newModel(a.agg, a.config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// uiModel is the main bubbletea model.
type uiModel struct {
	agg       *usage.Aggregator
	config    *util.Config
	dashboard *Dashboard
	spinner   spinner.Model
	ready     bool
	width     int
	height    int
	err       error
}

func newModel(agg *usage.Aggregator, cfg *util.Config) uiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return uiModel{
		agg:     agg,
		config:  cfg,
		spinner: s,
	}
}

// Init initializes the model.
func (m uiModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadData(m.agg, m.config.DefaultLookbackDays),
	)
}

// Update handles messages.
func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, loadData(m.agg, m.config.DefaultLookbackDays)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.dashboard != nil {
			m.dashboard.SetSize(msg.Width, msg.Height)
		}

	case dataMsg:
		m.ready = true
		m.err = nil
		m.dashboard = NewDashboard(msg, m.width, m.height)

	case errMsg:
		m.err = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI.
func (m uiModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render("Error: " + m.err.Error())
	}

	if !m.ready {
		return LoadingStyle.Render(m.spinner.View() + " Loading...")
	}

	return m.dashboard.View()
}

// Messages
type dataMsg struct {
	Report *model.DashboardReport
}

type errMsg struct {
	err error
}

func loadData(agg *usage.Aggregator, lookback int) tea.Cmd {
	return func() tea.Msg {
		end, err := agg.ResolveEndDate("")
		if err != nil {
			return errMsg{err}
		}
		report, err := agg.Aggregate(end, lookback)
		if err != nil {
			return errMsg{err}
		}
		return dataMsg{Report: report}
	}
}
