// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_principal_graph for a principal or the whole page
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	"github.com/harperreed/crmactivity/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	svc store.Service
}

func NewVizHandlers(svc store.Service) *VizHandlers {
	return &VizHandlers{svc: svc}
}

type GenerateGraphInput struct {
	Type        string `json:"type" jsonschema:"Graph type: principal or portfolio"`
	PrincipalID string `json:"principal_id,omitempty" jsonschema:"ID of the principal (required for principal graphs)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GeneratePrincipalGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	var dot string
	var err error

	switch input.Type {
	case "principal":
		if input.PrincipalID == "" {
			return nil, GenerateGraphOutput{}, fmt.Errorf("principal_id required for principal graph")
		}
		var detail *models.DashboardDetail
		detail, err = h.svc.GetDashboard(ctx, input.PrincipalID)
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load dashboard: %w", err)
		}
		dot, err = viz.PrincipalGraph(ctx, detail, viz.FormatDOT)

	case "portfolio":
		var page *models.Page
		page, err = h.svc.GetSummaries(ctx, models.Query{})
		if err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load principals: %w", err)
		}
		dot, err = viz.PortfolioGraph(ctx, page.Data, viz.FormatDOT)

	case "":
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: principal, portfolio)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodes, edges := 0, 0
	for _, line := range strings.Split(dot, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "[") {
			continue
		}
		switch {
		case strings.Contains(line, "->"):
			edges++
		case strings.HasPrefix(line, "graph"), strings.HasPrefix(line, "node"), strings.HasPrefix(line, "edge"):
		default:
			nodes++
		}
	}

	return &mcp.CallToolResult{}, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodes,
		EdgeCount: edges,
	}, nil
}
