// ABOUTME: MCP resource handlers exposing principal activity data
// ABOUTME: Read-only JSON views of the summary page, dashboards and analytics
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ResourceScheme     = "activity://"
	PrincipalsURI      = ResourceScheme + "principals"
	AnalyticsURI       = ResourceScheme + "analytics"
	PrincipalURIFormat = ResourceScheme + "principals/{id}"
)

type ResourceHandlers struct {
	svc store.Service
}

func NewResourceHandlers(svc store.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", ResourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, ResourceScheme), "/")
	switch parts[0] {
	case "principals":
		if len(parts) == 1 || parts[1] == "" {
			return h.readPrincipals(ctx, uri)
		}
		return h.readPrincipal(ctx, uri, parts[1])
	case "analytics":
		return h.readAnalytics(ctx, uri)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func (h *ResourceHandlers) readPrincipals(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	page, err := h.svc.GetSummaries(ctx, models.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch principals: %w", err)
	}
	return jsonResource(uri, page)
}

func (h *ResourceHandlers) readPrincipal(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	detail, err := h.svc.GetDashboard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch principal %s: %w", id, err)
	}
	return jsonResource(uri, detail)
}

func (h *ResourceHandlers) readAnalytics(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	page, err := h.svc.GetSummaries(ctx, models.Query{Pagination: models.Pagination{Page: 1, Limit: models.MaxPageSize}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch principals: %w", err)
	}
	return jsonResource(uri, h.svc.CalculateAnalytics(page.Data))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
