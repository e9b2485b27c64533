// ABOUTME: MCP prompt handlers for principal account reviews
// ABOUTME: Builds prompts from dashboards and the follow-up queue
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc store.Service
}

func NewPromptHandlers(svc store.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "principal-review":
		return h.principalReviewPrompt(ctx, request.Params.Arguments)
	case "follow-up-plan":
		return h.followUpPlanPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) principalReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["principal_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("principal_id is required")
	}

	detail, err := h.svc.GetDashboard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	s := detail.Summary

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Review the account health of principal %s.\n\n", s.PrincipalName))
	text.WriteString(fmt.Sprintf("Activity status: %s (engagement %.0f, lead score %.0f)\n", s.ActivityStatus, s.EngagementScore, s.LeadScore))
	text.WriteString(fmt.Sprintf("Interactions: %d total, %d in the last 30 days\n", s.TotalInteractions, s.InteractionsLast30Days))
	text.WriteString(fmt.Sprintf("Opportunities: %d total, %d active, %d won, %d lost\n",
		s.TotalOpportunities, s.ActiveOpportunities, s.WonOpportunities, s.LostOpportunities))
	if s.FollowUpsRequired > 0 {
		text.WriteString(fmt.Sprintf("Pending follow-ups: %d\n", s.FollowUpsRequired))
	}

	if len(detail.DistributorRelationships) > 0 {
		text.WriteString("\nDistributors:\n")
		for _, rel := range detail.DistributorRelationships {
			text.WriteString(fmt.Sprintf("- %s (%s, volume $%.0f)\n", rel.DistributorName, rel.RelationshipStatus, rel.TotalVolume))
		}
	}

	if len(detail.RecentTimeline) > 0 {
		text.WriteString("\nRecent interactions:\n")
		for _, e := range detail.RecentTimeline {
			text.WriteString(fmt.Sprintf("- %s %s: %s\n", e.InteractionDate.Format("2006-01-02"), e.InteractionType, e.Subject))
		}
	}

	text.WriteString("\nPlease provide:")
	text.WriteString("\n1. An assessment of the relationship's momentum")
	text.WriteString("\n2. Distributors or products that need attention")
	text.WriteString("\n3. Concrete next steps for the account manager")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Account review for principal: %s", s.PrincipalName),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) followUpPlanPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	follow := true
	page, err := h.svc.GetSummaries(ctx, models.Query{
		Filters:    models.Filters{FollowUpRequired: &follow},
		Sort:       models.Sort{Field: "next_follow_up_date", Order: models.SortAsc},
		Pagination: models.Pagination{Page: 1, Limit: 50},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follow-ups: %w", err)
	}

	var text strings.Builder
	text.WriteString("Plan this week's follow-ups with these principals:\n\n")
	if len(page.Data) == 0 {
		text.WriteString("No principals have pending follow-ups.\n")
	}
	for _, r := range page.Data {
		due := "unscheduled"
		if r.NextFollowUpDate != nil {
			due = r.NextFollowUpDate.Format("2006-01-02")
		}
		text.WriteString(fmt.Sprintf("- %s: %d pending, due %s, status %s\n", r.PrincipalName, r.FollowUpsRequired, due, r.ActivityStatus))
	}
	text.WriteString("\nGroup them by urgency and suggest an outreach order.")

	return &mcp.GetPromptResult{
		Description: "Follow-up plan for principals with pending follow-ups",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text.String()},
			},
		},
	}, nil
}
