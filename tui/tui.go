// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses, filters, selects and batch-updates principals through the activity store
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewAnalytics
	ViewConfirmBatch
)

// requestTimeout bounds every store call made from the UI.
const requestTimeout = 30 * time.Second

// Model is the main bubbletea model
type Model struct {
	store    *store.Store
	viewMode ViewMode

	// List view state
	selectedRow  int
	searching    bool
	searchInput  textinput.Model
	statusFilter int

	// Detail view state
	detail *models.DashboardDetail

	// UI state
	message string
	width   int
	height  int
	err     error
}

// NewModel creates a new TUI model over s.
func NewModel(s *store.Store) Model {
	input := textinput.New()
	input.Placeholder = "principal or contact name"
	input.CharLimit = 100

	return Model{
		store:       s,
		viewMode:    ViewList,
		searchInput: input,
		width:       100,
		height:      30,
	}
}

type principalsLoadedMsg struct{ err error }

type dashboardLoadedMsg struct {
	detail *models.DashboardDetail
	err    error
}

type batchUpdatedMsg struct {
	updated int
	err     error
}

type refreshMsg time.Time

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run(func(ctx context.Context) error {
		return m.store.FetchPrincipals(ctx, nil)
	}), m.tick())
}

// run executes a store action off the UI goroutine.
func (m Model) run(action func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return principalsLoadedMsg{err: action(ctx)}
	}
}

// tick redraws on the store's refresh interval so analytics recalculated
// in the background show up.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.store.RefreshInterval(), func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case principalsLoadedMsg:
		m.err = msg.err
		if rows := len(m.store.Principals()); m.selectedRow >= rows {
			m.selectedRow = max(rows-1, 0)
		}
		return m, nil
	case dashboardLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.detail = msg.detail
			m.viewMode = ViewDetail
		}
		return m, nil
	case batchUpdatedMsg:
		m.err = msg.err
		m.viewMode = ViewList
		if msg.err == nil {
			m.message = pluralize(msg.updated, "principal") + " updated"
		}
		return m, nil
	case refreshMsg:
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewAnalytics:
		return m.renderAnalyticsView()
	case ViewConfirmBatch:
		return m.renderConfirmBatchView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewAnalytics:
		return m.handleAnalyticsKeys(msg)
	case ViewConfirmBatch:
		return m.handleConfirmBatchKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	statusStyles = map[models.ActivityStatus]lipgloss.Style{
		models.StatusActive:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		models.StatusModerate:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		models.StatusLow:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.StatusNoActivity: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
