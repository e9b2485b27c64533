package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

const dateFormat = "2006-01-02"

func (m Model) renderDetailView() string {
	if m.detail == nil {
		return "No principal loaded\n\n" + m.renderDetailHelp()
	}

	var s strings.Builder
	p := m.detail.Summary

	s.WriteString(titleStyle.Render(strings.ToUpper(p.PrincipalName)))
	s.WriteString("\n\n")

	status := string(p.ActivityStatus)
	if style, ok := statusStyles[p.ActivityStatus]; ok {
		status = style.Render(status)
	}
	s.WriteString(fmt.Sprintf("%s %s\n", fieldLabelStyle.Render("Status:"), status))
	s.WriteString(m.renderField("Type", p.OrganizationType))
	s.WriteString(m.renderField("Region", p.GeographicRegion))
	s.WriteString(m.renderField("Engagement", fmt.Sprintf("%.1f", p.EngagementScore)))
	s.WriteString(m.renderField("Lead Score", fmt.Sprintf("%.1f", p.LeadScore)))
	s.WriteString(m.renderField("Primary Contact", p.PrimaryContactName))
	s.WriteString(m.renderField("Interactions", fmt.Sprintf("%d (%d in 30 days)", p.TotalInteractions, p.InteractionsLast30Days)))
	if p.LastInteractionDate != nil {
		s.WriteString(m.renderField("Last Interaction", p.LastInteractionDate.Format(dateFormat)))
	}
	if p.NextFollowUpDate != nil {
		s.WriteString(m.renderField("Next Follow-up", p.NextFollowUpDate.Format(dateFormat)))
	}
	s.WriteString(m.renderField("Opportunities", fmt.Sprintf("%d (%d won, %d lost)", p.TotalOpportunities, p.WonOpportunities, p.LostOpportunities)))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("DISTRIBUTORS"))
	s.WriteString("\n")
	if len(m.detail.DistributorRelationships) == 0 {
		s.WriteString("  none\n")
	}
	for _, rel := range m.detail.DistributorRelationships {
		s.WriteString(fmt.Sprintf("  • %s (%s) $%.0fK\n", rel.DistributorName, rel.RelationshipStatus, rel.TotalVolume/1000))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("PRODUCTS"))
	s.WriteString("\n")
	if len(m.detail.ProductPerformance) == 0 {
		s.WriteString("  none\n")
	}
	for _, prod := range m.detail.ProductPerformance {
		s.WriteString(fmt.Sprintf("  • %s: %d opportunities, %d won\n", prod.ProductName, prod.OpportunityCount, prod.WonCount))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("RECENT ACTIVITY"))
	s.WriteString("\n")
	if len(m.detail.RecentTimeline) == 0 {
		s.WriteString("  none\n")
	}
	for _, entry := range m.detail.RecentTimeline {
		s.WriteString(fmt.Sprintf("  • [%s] %s %s\n", entry.InteractionDate.Format(dateFormat), entry.InteractionType, entry.Subject))
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"Space: Select",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
	case " ":
		if m.detail != nil && !m.store.ToggleSelection(m.detail.Summary.PrincipalID) {
			m.message = "Selection limit reached"
		}
	}

	return m, nil
}
