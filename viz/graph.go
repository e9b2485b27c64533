// ABOUTME: GraphViz rendering of a principal's distributor and product network
// ABOUTME: Also renders the loaded portfolio grouped by activity status
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/crmactivity/models"
)

// Format selects the graph output.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

func (f Format) graphviz() (graphviz.Format, error) {
	switch f {
	case "", FormatDOT:
		return graphviz.XDOT, nil
	case FormatSVG:
		return graphviz.SVG, nil
	default:
		return "", fmt.Errorf("unknown graph format: %s (valid formats: dot, svg)", f)
	}
}

var statusColors = map[models.ActivityStatus]string{
	models.StatusActive:     "palegreen",
	models.StatusModerate:   "lightyellow",
	models.StatusLow:        "lightsalmon",
	models.StatusNoActivity: "lightgray",
}

// render builds a graph with build and renders it in format.
func render(ctx context.Context, format Format, build func(graph *cgraph.Graph) error) (string, error) {
	gvFormat, err := format.graphviz()
	if err != nil {
		return "", err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// PrincipalGraph draws one principal with its distributors and products.
// Distributor edges carry the relationship volume.
func PrincipalGraph(ctx context.Context, detail *models.DashboardDetail, format Format) (string, error) {
	if detail == nil {
		return "", fmt.Errorf("dashboard detail is required")
	}

	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel(detail.Summary.PrincipalName)

		summary := detail.Summary
		principal, err := graph.CreateNodeByName("principal_" + summary.PrincipalID)
		if err != nil {
			return fmt.Errorf("failed to create principal node: %w", err)
		}
		principal.SetLabel(fmt.Sprintf("%s\n%s (%.0f)", summary.PrincipalName, summary.ActivityStatus, summary.EngagementScore))
		principal.SetShape("box")
		principal.SetStyle("filled")
		principal.SetFillColor(statusColors[summary.ActivityStatus])

		for _, rel := range detail.DistributorRelationships {
			node, err := graph.CreateNodeByName("distributor_" + rel.DistributorID)
			if err != nil {
				return fmt.Errorf("failed to create distributor node: %w", err)
			}
			node.SetLabel(rel.DistributorName)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")

			edge, err := graph.CreateEdgeByName("distributes_"+rel.ID, principal, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(fmt.Sprintf("$%.0fK", rel.TotalVolume/1000))
			if rel.RelationshipStatus != "" && rel.RelationshipStatus != "active" {
				edge.SetStyle("dashed")
			}
		}

		for _, p := range detail.ProductPerformance {
			node, err := graph.CreateNodeByName("product_" + p.ID)
			if err != nil {
				return fmt.Errorf("failed to create product node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d/%d won", p.ProductName, p.WonCount, p.OpportunityCount))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			edge, err := graph.CreateEdgeByName("sells_"+p.ID, principal, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
		}
		return nil
	})
}

// PortfolioGraph links every record to a node for its activity status.
func PortfolioGraph(ctx context.Context, records []models.ActivityRecord, format Format) (string, error) {
	return render(ctx, format, func(graph *cgraph.Graph) error {
		graph.SetLabel("Principal Activity")

		statusNodes := make(map[models.ActivityStatus]*cgraph.Node, len(models.ActivityStatuses))
		for _, st := range models.ActivityStatuses {
			node, err := graph.CreateNodeByName("status_" + string(st))
			if err != nil {
				return fmt.Errorf("failed to create status node: %w", err)
			}
			node.SetLabel(string(st))
			node.SetShape("doubleoctagon")
			node.SetStyle("filled")
			node.SetFillColor(statusColors[st])
			statusNodes[st] = node
		}

		for _, r := range records {
			node, err := graph.CreateNodeByName("principal_" + r.PrincipalID)
			if err != nil {
				return fmt.Errorf("failed to create principal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%.0f", r.PrincipalName, r.EngagementScore))
			node.SetShape("box")

			target, ok := statusNodes[r.ActivityStatus]
			if !ok {
				target = statusNodes[models.StatusNoActivity]
			}
			if _, err := graph.CreateEdgeByName("status_of_"+r.PrincipalID, node, target); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
		return nil
	})
}
