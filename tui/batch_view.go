// ABOUTME: Batch deactivation confirmation view for TUI
// ABOUTME: Marks every selected principal inactive once confirmed
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmactivity/models"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmBatchView() string {
	count := len(m.store.SelectedIDs())

	title := warningStyle.Render("⚠  BATCH UPDATE  ⚠")
	message := fmt.Sprintf("Mark %s inactive?", pluralize(count, "principal"))

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Update (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmBatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		inactive := false
		update := models.PrincipalUpdate{IsActive: &inactive}
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			n, err := m.store.BatchUpdate(ctx, update)
			return batchUpdatedMsg{updated: n, err: err}
		}
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}
