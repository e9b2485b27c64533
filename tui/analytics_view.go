package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/crmactivity/viz"
)

func (m Model) renderAnalyticsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PRINCIPAL ACTIVITY"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	summary := m.store.CalculateAnalytics(false)
	s.WriteString(viz.RenderDashboard(summary))
	s.WriteString("\n")
	s.WriteString(helpStyle.UnsetMarginTop().Render(fmt.Sprintf("Calculated %s", summary.LastCalculated.Format("15:04:05"))))
	s.WriteString("\n")

	help := []string{
		"Tab: Principals",
		"r: Recalculate",
		"q: Quit",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) handleAnalyticsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "esc":
		m.viewMode = ViewList
	case "r":
		m.store.CalculateAnalytics(true)
	}

	return m, nil
}
