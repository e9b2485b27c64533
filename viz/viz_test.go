// ABOUTME: Tests for principal graphs and the terminal analytics dashboard
// ABOUTME: Graph tests render DOT through the embedded graphviz runtime
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/crmactivity/analytics"
	"github.com/harperreed/crmactivity/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetail() *models.DashboardDetail {
	return &models.DashboardDetail{
		Summary: models.ActivityRecord{PrincipalID: "p1", PrincipalName: "Acme Foods", ActivityStatus: models.StatusActive, EngagementScore: 82},
		DistributorRelationships: []models.DistributorRelationship{
			{ID: "r1", DistributorID: "d1", DistributorName: "Sysco", RelationshipStatus: "active", TotalVolume: 250000},
			{ID: "r2", DistributorID: "d2", DistributorName: "US Foods", RelationshipStatus: "paused", TotalVolume: 1000},
		},
		ProductPerformance: []models.ProductPerformance{
			{ID: "x1", ProductName: "Frozen Line 1", OpportunityCount: 4, WonCount: 1},
		},
	}
}

func TestPrincipalGraph(t *testing.T) {
	dot, err := PrincipalGraph(context.Background(), sampleDetail(), FormatDOT)
	require.NoError(t, err)

	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "Sysco")
	assert.Contains(t, dot, "US Foods")
	assert.Contains(t, dot, "Frozen Line 1")
	assert.Contains(t, dot, "$250K")
}

func TestPrincipalGraphSVG(t *testing.T) {
	svg, err := PrincipalGraph(context.Background(), sampleDetail(), FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, svg, "<svg")
}

func TestPrincipalGraphRejectsBadInput(t *testing.T) {
	_, err := PrincipalGraph(context.Background(), nil, FormatDOT)
	assert.Error(t, err)

	_, err = PrincipalGraph(context.Background(), sampleDetail(), Format("png"))
	assert.Error(t, err)
}

func TestPortfolioGraph(t *testing.T) {
	records := []models.ActivityRecord{
		{PrincipalID: "p1", PrincipalName: "Acme Foods", ActivityStatus: models.StatusActive},
		{PrincipalID: "p2", PrincipalName: "Blue Ridge", ActivityStatus: "UNKNOWN"},
	}
	dot, err := PortfolioGraph(context.Background(), records, FormatDOT)
	require.NoError(t, err)

	for _, st := range models.ActivityStatuses {
		assert.Contains(t, dot, string(st))
	}
	assert.Contains(t, dot, "Blue Ridge")
}

func TestRenderDashboard(t *testing.T) {
	records := []models.ActivityRecord{
		{PrincipalID: "a", IsActive: true, EngagementScore: 90, ActivityStatus: models.StatusActive, GeographicRegion: "West",
			TotalOpportunities: 4, ActiveOpportunities: 2, WonOpportunities: 1, LostOpportunities: 1},
		{PrincipalID: "b", EngagementScore: 10, ActivityStatus: models.StatusLow},
	}
	out := RenderDashboard(analytics.Calculate(records, time.Now()))

	assert.Contains(t, out, "PRINCIPAL ACTIVITY DASHBOARD")
	assert.Contains(t, out, "2 principals (1 active, 1 inactive)")
	assert.Contains(t, out, "REGIONS")
	assert.Contains(t, out, "West")
	assert.Contains(t, out, "PIPELINE HEALTH")

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ACTIVE ") && strings.Contains(line, "█") {
			assert.Contains(t, line, strings.Repeat("█", barWidth))
		}
	}
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", barWidth), bar(0, 0))
	assert.Equal(t, strings.Repeat("█", barWidth), bar(5, 5))
	assert.Equal(t, strings.Repeat("█", barWidth), bar(500, 100))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), bar(1, 2))
}
