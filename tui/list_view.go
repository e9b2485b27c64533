package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmactivity/models"
)

// sortCycle is the order "s" steps through.
var sortCycle = []models.Sort{
	{Field: "engagement_score", Order: models.SortDesc},
	{Field: "principal_name", Order: models.SortAsc},
	{Field: "last_interaction_date", Order: models.SortDesc},
	{Field: "next_follow_up_date", Order: models.SortAsc},
	{Field: "total_opportunities", Order: models.SortDesc},
}

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("PRINCIPAL ACTIVITY"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderFilterLine())
	s.WriteString("\n")

	if m.searching {
		s.WriteString("Search: " + m.searchInput.View())
		s.WriteString("\n")
	}

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderPageLine())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Principals", "Analytics"}
	active := 0
	if m.viewMode == ViewAnalytics {
		active = 1
	}

	var rendered []string
	for i, tab := range tabs {
		if i == active {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFilterLine() string {
	q := m.store.Query()
	var parts []string
	if q.Filters.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Filters.Search))
	}
	if len(q.Filters.ActivityStatus) > 0 {
		statuses := make([]string, len(q.Filters.ActivityStatus))
		for i, st := range q.Filters.ActivityStatus {
			statuses[i] = string(st)
		}
		parts = append(parts, "status "+strings.Join(statuses, ","))
	}
	parts = append(parts, fmt.Sprintf("sort %s %s", q.Sort.Field, q.Sort.Order))
	if m.store.IsBatchMode() {
		parts = append(parts, fmt.Sprintf("batch mode (%d selected)", len(m.store.SelectedIDs())))
	}
	return helpStyle.UnsetMarginTop().Render(strings.Join(parts, " • "))
}

func (m Model) renderTable() string {
	principals := m.store.Principals()
	if m.store.IsLoading() && len(principals) == 0 {
		return "Loading..."
	}

	columns := []table.Column{
		{Title: " ", Width: 3},
		{Title: "Principal", Width: 28},
		{Title: "Status", Width: 12},
		{Title: "Score", Width: 6},
		{Title: "Interactions", Width: 12},
		{Title: "Opps", Width: 5},
		{Title: "Follow-ups", Width: 10},
		{Title: "Contact", Width: 20},
	}

	var rows []table.Row
	for _, p := range principals {
		marker := ""
		if m.store.IsSelected(p.PrincipalID) {
			marker = "[x]"
		}
		rows = append(rows, table.Row{
			marker,
			p.PrincipalName,
			string(p.ActivityStatus),
			fmt.Sprintf("%.0f", p.EngagementScore),
			fmt.Sprintf("%d", p.TotalInteractions),
			fmt.Sprintf("%d", p.TotalOpportunities),
			fmt.Sprintf("%d", p.FollowUpsRequired),
			p.PrimaryContactName,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-14, 5)),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderPageLine() string {
	info := m.store.Pagination()
	if info.TotalPages == 0 {
		return helpStyle.UnsetMarginTop().Render("No principals")
	}
	return helpStyle.UnsetMarginTop().Render(fmt.Sprintf("Page %d of %d (%d principals)", info.Page, info.TotalPages, info.Total))
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Enter: Dashboard",
		"/: Search",
		"f: Status",
		"s: Sort",
		"←/→: Page",
		"Space: Select",
		"b: Batch mode",
		"x: Deactivate",
		"Tab: Analytics",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.store.Principals())-1 {
			m.selectedRow++
		}
	case "tab":
		m.viewMode = ViewAnalytics
	case "enter":
		if p, ok := m.currentPrincipal(); ok {
			id := p.PrincipalID
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				detail, err := m.store.FetchDashboard(ctx, id)
				return dashboardLoadedMsg{detail: detail, err: err}
			}
		}
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.store.Query().Filters.Search)
		return m, m.searchInput.Focus()
	case "f":
		m.statusFilter = (m.statusFilter + 1) % (len(models.ActivityStatuses) + 1)
		m.selectedRow = 0
		var statuses []models.ActivityStatus
		if m.statusFilter > 0 {
			statuses = []models.ActivityStatus{models.ActivityStatuses[m.statusFilter-1]}
		}
		return m, m.run(func(ctx context.Context) error {
			return m.store.UpdateFilters(ctx, func(f *models.Filters) {
				f.ActivityStatus = statuses
			})
		})
	case "s":
		next := nextSort(m.store.Query().Sort)
		m.selectedRow = 0
		return m, m.run(func(ctx context.Context) error {
			return m.store.UpdateSort(ctx, next)
		})
	case "right", "l", "n":
		m.selectedRow = 0
		return m, m.run(m.store.NextPage)
	case "left", "h", "p":
		m.selectedRow = 0
		return m, m.run(m.store.PreviousPage)
	case "r":
		return m, m.run(func(ctx context.Context) error {
			return m.store.FetchPrincipals(ctx, nil)
		})
	case " ":
		if p, ok := m.currentPrincipal(); ok {
			if !m.store.ToggleSelection(p.PrincipalID) {
				m.message = "Selection limit reached"
			}
		}
	case "a":
		m.store.SelectAll()
	case "c":
		m.store.ClearSelections()
	case "b":
		m.store.SetBatchMode(!m.store.IsBatchMode(), 0)
	case "x":
		if len(m.store.SelectedIDs()) == 0 {
			m.message = "Select principals first"
			return m, nil
		}
		m.viewMode = ViewConfirmBatch
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.searchInput.Blur()
		m.selectedRow = 0
		text := m.searchInput.Value()
		return m, m.run(func(ctx context.Context) error {
			return m.store.Search(ctx, text)
		})
	case tea.KeyEsc:
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) currentPrincipal() (models.ActivityRecord, bool) {
	principals := m.store.Principals()
	if m.selectedRow < 0 || m.selectedRow >= len(principals) {
		return models.ActivityRecord{}, false
	}
	return principals[m.selectedRow], true
}

func nextSort(current models.Sort) models.Sort {
	for i, s := range sortCycle {
		if s == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}
