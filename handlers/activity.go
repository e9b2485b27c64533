// ABOUTME: MCP tool handlers for principal activity queries and batch updates
// ABOUTME: Maps tool input onto activity queries against the aggregation service
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ActivityHandlers struct {
	svc store.Service
}

func NewActivityHandlers(svc store.Service) *ActivityHandlers {
	return &ActivityHandlers{svc: svc}
}

// ActivityFilterInput is shared by the list and analytics tools.
type ActivityFilterInput struct {
	Search           string   `json:"search,omitempty" jsonschema:"Text matched against principal and primary contact names"`
	ActivityStatus   []string `json:"activity_status,omitempty" jsonschema:"Activity statuses to include (ACTIVE, MODERATE, LOW, NO_ACTIVITY)"`
	MinScore         *float64 `json:"min_score,omitempty" jsonschema:"Minimum engagement score (0-100)"`
	MaxScore         *float64 `json:"max_score,omitempty" jsonschema:"Maximum engagement score (0-100)"`
	OrganizationType string   `json:"organization_type,omitempty" jsonschema:"Organization type to include"`
	FollowUpRequired *bool    `json:"follow_up_required,omitempty" jsonschema:"Only principals with (true) or without (false) pending follow-ups"`
}

type ListActivityInput struct {
	Filters   ActivityFilterInput `json:"filters,omitempty" jsonschema:"Filters applied before paging"`
	SortField string              `json:"sort_field,omitempty" jsonschema:"Field to sort by (default engagement_score)"`
	SortOrder string              `json:"sort_order,omitempty" jsonschema:"asc or desc (default desc)"`
	Page      int                 `json:"page,omitempty" jsonschema:"Page number, starting at 1"`
	Limit     int                 `json:"limit,omitempty" jsonschema:"Page size (default 20)"`
}

type ListActivityOutput struct {
	Principals []models.ActivityRecord `json:"principals"`
	Pagination models.PageInfo         `json:"pagination"`
}

func (in ActivityFilterInput) filters() (models.Filters, error) {
	f := models.Filters{
		Search:           in.Search,
		OrganizationType: in.OrganizationType,
		FollowUpRequired: in.FollowUpRequired,
	}
	for _, s := range in.ActivityStatus {
		status := models.ActivityStatus(strings.ToUpper(strings.TrimSpace(s)))
		if !status.Valid() {
			return models.Filters{}, fmt.Errorf("invalid activity_status: %s (valid: ACTIVE, MODERATE, LOW, NO_ACTIVITY)", s)
		}
		f.ActivityStatus = append(f.ActivityStatus, status)
	}
	if in.MinScore != nil || in.MaxScore != nil {
		r := models.ScoreRange{Min: 0, Max: 100}
		if in.MinScore != nil {
			r.Min = *in.MinScore
		}
		if in.MaxScore != nil {
			r.Max = *in.MaxScore
		}
		f.EngagementScoreRange = &r
	}
	return f, nil
}

func (h *ActivityHandlers) ListPrincipalActivity(ctx context.Context, req *mcp.CallToolRequest, input ListActivityInput) (*mcp.CallToolResult, ListActivityOutput, error) {
	filters, err := input.Filters.filters()
	if err != nil {
		return nil, ListActivityOutput{}, err
	}

	page, err := h.svc.GetSummaries(ctx, models.Query{
		Filters:    filters,
		Sort:       models.Sort{Field: input.SortField, Order: models.SortOrder(input.SortOrder)},
		Pagination: models.Pagination{Page: input.Page, Limit: input.Limit},
	})
	if err != nil {
		return nil, ListActivityOutput{}, fmt.Errorf("failed to list principal activity: %w", err)
	}

	return &mcp.CallToolResult{}, ListActivityOutput{
		Principals: page.Data,
		Pagination: page.Pagination,
	}, nil
}

type GetDashboardInput struct {
	PrincipalID string `json:"principal_id" jsonschema:"ID of the principal"`
}

func (h *ActivityHandlers) GetPrincipalDashboard(ctx context.Context, req *mcp.CallToolRequest, input GetDashboardInput) (*mcp.CallToolResult, models.DashboardDetail, error) {
	if strings.TrimSpace(input.PrincipalID) == "" {
		return nil, models.DashboardDetail{}, fmt.Errorf("principal_id is required")
	}

	detail, err := h.svc.GetDashboard(ctx, input.PrincipalID)
	if err != nil {
		return nil, models.DashboardDetail{}, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &mcp.CallToolResult{}, *detail, nil
}

type AnalyticsInput struct {
	Filters ActivityFilterInput `json:"filters,omitempty" jsonschema:"Filters selecting the principals to analyze"`
	Limit   int                 `json:"limit,omitempty" jsonschema:"Maximum principals to analyze (default 500)"`
}

// PrincipalActivityAnalytics summarizes the first page of matching
// principals, sized to cover the whole result up to the page size limit.
func (h *ActivityHandlers) PrincipalActivityAnalytics(ctx context.Context, req *mcp.CallToolRequest, input AnalyticsInput) (*mcp.CallToolResult, models.AnalyticsSummary, error) {
	filters, err := input.Filters.filters()
	if err != nil {
		return nil, models.AnalyticsSummary{}, err
	}
	if input.Limit <= 0 {
		input.Limit = models.MaxPageSize
	}

	page, err := h.svc.GetSummaries(ctx, models.Query{
		Filters:    filters,
		Pagination: models.Pagination{Page: 1, Limit: input.Limit},
	})
	if err != nil {
		return nil, models.AnalyticsSummary{}, fmt.Errorf("failed to load principals: %w", err)
	}

	return &mcp.CallToolResult{}, h.svc.CalculateAnalytics(page.Data), nil
}

type BatchUpdateInput struct {
	PrincipalIDs     []string `json:"principal_ids" jsonschema:"IDs of the principals to update"`
	PrincipalStatus  *string  `json:"principal_status,omitempty" jsonschema:"New principal status"`
	IsActive         *bool    `json:"is_active,omitempty" jsonschema:"Mark principals active or inactive"`
	OrganizationType *string  `json:"organization_type,omitempty" jsonschema:"New organization type"`
	NextFollowUpDate string   `json:"next_follow_up_date,omitempty" jsonschema:"Next follow-up date (YYYY-MM-DD)"`
}

type BatchUpdateOutput struct {
	Updated int `json:"updated"`
}

func (h *ActivityHandlers) BatchUpdatePrincipals(ctx context.Context, req *mcp.CallToolRequest, input BatchUpdateInput) (*mcp.CallToolResult, BatchUpdateOutput, error) {
	if len(input.PrincipalIDs) == 0 {
		return nil, BatchUpdateOutput{}, fmt.Errorf("principal_ids is required")
	}

	update := models.PrincipalUpdate{
		PrincipalStatus:  input.PrincipalStatus,
		IsActive:         input.IsActive,
		OrganizationType: input.OrganizationType,
	}
	if input.NextFollowUpDate != "" {
		date, err := time.Parse("2006-01-02", input.NextFollowUpDate)
		if err != nil {
			return nil, BatchUpdateOutput{}, fmt.Errorf("invalid next_follow_up_date: %w", err)
		}
		update.NextFollowUpDate = &date
	}
	if update.IsEmpty() {
		return nil, BatchUpdateOutput{}, fmt.Errorf("at least one field to update is required")
	}

	n, err := h.svc.BatchUpdate(ctx, input.PrincipalIDs, update)
	if err != nil {
		return nil, BatchUpdateOutput{}, fmt.Errorf("failed to update principals: %w", err)
	}
	return &mcp.CallToolResult{}, BatchUpdateOutput{Updated: n}, nil
}
