// ABOUTME: Tests for the activity, naming, viz, resource and prompt handlers
// ABOUTME: Runs handlers against an in-memory SQLite database
package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/crmactivity/activity"
	"github.com/harperreed/crmactivity/db"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/naming"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) *activity.Service {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ctx := context.Background()
	due := fixedNow.AddDate(0, 0, 3)
	records := []models.ActivityRecord{
		{PrincipalID: "p1", PrincipalName: "Acme Foods", OrganizationType: "principal", EngagementScore: 85,
			ActivityStatus: models.StatusActive, FollowUpsRequired: 2, NextFollowUpDate: &due,
			TotalOpportunities: 4, ActiveOpportunities: 2, WonOpportunities: 1, LostOpportunities: 1},
		{PrincipalID: "p2", PrincipalName: "Blue Ridge Dairy", OrganizationType: "principal", EngagementScore: 45,
			ActivityStatus: models.StatusModerate},
		{PrincipalID: "p3", PrincipalName: "Coastal Catch", OrganizationType: "distributor", EngagementScore: 10,
			ActivityStatus: models.StatusLow},
	}
	for i := range records {
		require.NoError(t, db.CreateSummary(ctx, database, &records[i]))
	}
	require.NoError(t, db.CreateDistributorRelationship(ctx, database, &models.DistributorRelationship{
		PrincipalID: "p1", DistributorID: "d1", DistributorName: "Sysco", RelationshipStatus: "active", TotalVolume: 120000,
	}))
	require.NoError(t, db.CreateInteraction(ctx, database, &models.TimelineEntry{
		PrincipalID: "p1", InteractionType: "call", Subject: "Quarterly review", InteractionDate: fixedNow.AddDate(0, 0, -2),
	}))
	require.NoError(t, db.CreateOpportunity(ctx, database, &models.Opportunity{
		Name: "Acme Foods - Fresh Co - March 2025", PrincipalID: "p1",
	}))

	logger, _ := logtest.NewNullLogger()
	return activity.NewService(db.NewSource(database), activity.WithLogger(logger), activity.WithClock(func() time.Time { return fixedNow }))
}

func TestListPrincipalActivity(t *testing.T) {
	h := NewActivityHandlers(setupTestService(t))
	ctx := context.Background()

	t.Run("DefaultOrder", func(t *testing.T) {
		_, out, err := h.ListPrincipalActivity(ctx, &mcp.CallToolRequest{}, ListActivityInput{})
		require.NoError(t, err)
		require.Len(t, out.Principals, 3)
		assert.Equal(t, "p1", out.Principals[0].PrincipalID)
		assert.Equal(t, 3, out.Pagination.Total)
	})

	t.Run("Filters", func(t *testing.T) {
		minScore := 20.0
		_, out, err := h.ListPrincipalActivity(ctx, &mcp.CallToolRequest{}, ListActivityInput{
			Filters:   ActivityFilterInput{OrganizationType: "principal", MinScore: &minScore, ActivityStatus: []string{"moderate"}},
			SortField: "principal_name",
			SortOrder: "asc",
		})
		require.NoError(t, err)
		require.Len(t, out.Principals, 1)
		assert.Equal(t, "p2", out.Principals[0].PrincipalID)
	})

	t.Run("Pagination", func(t *testing.T) {
		_, out, err := h.ListPrincipalActivity(ctx, &mcp.CallToolRequest{}, ListActivityInput{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, out.Principals, 1)
		assert.True(t, out.Pagination.HasPrevious)
		assert.False(t, out.Pagination.HasNext)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, _, err := h.ListPrincipalActivity(ctx, &mcp.CallToolRequest{}, ListActivityInput{
			Filters: ActivityFilterInput{ActivityStatus: []string{"dormant"}},
		})
		assert.Error(t, err)
	})
}

func TestGetPrincipalDashboard(t *testing.T) {
	h := NewActivityHandlers(setupTestService(t))
	ctx := context.Background()

	_, detail, err := h.GetPrincipalDashboard(ctx, &mcp.CallToolRequest{}, GetDashboardInput{PrincipalID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", detail.Summary.PrincipalName)
	require.Len(t, detail.DistributorRelationships, 1)
	assert.Equal(t, "Sysco", detail.DistributorRelationships[0].DistributorName)
	require.Len(t, detail.RecentTimeline, 1)
	assert.Empty(t, detail.ProductPerformance)

	_, _, err = h.GetPrincipalDashboard(ctx, &mcp.CallToolRequest{}, GetDashboardInput{})
	assert.Error(t, err)

	_, _, err = h.GetPrincipalDashboard(ctx, &mcp.CallToolRequest{}, GetDashboardInput{PrincipalID: "missing"})
	assert.Error(t, err)
}

func TestPrincipalActivityAnalytics(t *testing.T) {
	h := NewActivityHandlers(setupTestService(t))

	_, summary, err := h.PrincipalActivityAnalytics(context.Background(), &mcp.CallToolRequest{}, AnalyticsInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPrincipals)
	assert.Equal(t, 1, summary.ActivePrincipals)
	assert.Equal(t, 46.67, summary.AvgEngagementScore)
	assert.Equal(t, fixedNow, summary.LastCalculated)
	assert.Equal(t, 25.0, summary.PipelineHealth.HealthScore)
	assert.Equal(t, models.HealthFair, summary.PipelineHealth.Status)
}

func TestBatchUpdatePrincipals(t *testing.T) {
	svc := setupTestService(t)
	h := NewActivityHandlers(svc)
	ctx := context.Background()

	inactive := false
	_, out, err := h.BatchUpdatePrincipals(ctx, &mcp.CallToolRequest{}, BatchUpdateInput{
		PrincipalIDs:     []string{"p2", "p3"},
		IsActive:         &inactive,
		NextFollowUpDate: "2025-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Updated)

	detail, err := svc.GetDashboard(ctx, "p3")
	require.NoError(t, err)
	require.NotNil(t, detail.Summary.NextFollowUpDate)
	assert.Equal(t, "2025-04-01", detail.Summary.NextFollowUpDate.Format("2006-01-02"))

	_, _, err = h.BatchUpdatePrincipals(ctx, &mcp.CallToolRequest{}, BatchUpdateInput{PrincipalIDs: []string{"p1"}})
	assert.Error(t, err, "an update with no fields is rejected")

	_, _, err = h.BatchUpdatePrincipals(ctx, &mcp.CallToolRequest{}, BatchUpdateInput{IsActive: &inactive})
	assert.Error(t, err)

	_, _, err = h.BatchUpdatePrincipals(ctx, &mcp.CallToolRequest{}, BatchUpdateInput{PrincipalIDs: []string{"p1"}, NextFollowUpDate: "next week"})
	assert.Error(t, err)
}

func newNamingHandlers(t *testing.T) *NamingHandlers {
	t.Helper()
	gen := naming.New(naming.WithClock(func() time.Time { return fixedNow }))
	return NewNamingHandlers(gen, setupTestService(t))
}

func TestNamingTools(t *testing.T) {
	h := newNamingHandlers(t)
	ctx := context.Background()
	opts := NameOptionsInput{OrganizationName: "Acme Foods", PrincipalName: "Fresh Co"}

	_, gen, err := h.GenerateOpportunityName(ctx, &mcp.CallToolRequest{}, opts)
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods - Fresh Co - March 2025", gen.Name)
	assert.Equal(t, "{{organization}} - {{principal}} - {{month}} {{year}}", gen.Template)

	_, unique, err := h.GenerateUniqueOpportunityName(ctx, &mcp.CallToolRequest{}, opts)
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods - Fresh Co - March 2025 (2)", unique.Name)

	_, parsed, err := h.ParseOpportunityName(ctx, &mcp.CallToolRequest{}, ParseNameInput{Name: gen.Name, Template: gen.Template})
	require.NoError(t, err)
	assert.True(t, parsed.AutoGenerated)
	require.NotNil(t, parsed.Parsed)
	assert.Equal(t, "Fresh Co", parsed.Parsed.Principal)

	_, parsed, err = h.ParseOpportunityName(ctx, &mcp.CallToolRequest{}, ParseNameInput{Name: "Hand written", Template: gen.Template})
	require.NoError(t, err)
	assert.False(t, parsed.AutoGenerated)
	assert.Nil(t, parsed.Parsed)

	_, previews, err := h.PreviewOpportunityNames(ctx, &mcp.CallToolRequest{}, PreviewNamesInput{
		Options:    NameOptionsInput{OrganizationName: "Acme Foods", Context: "Site Visit"},
		Principals: []models.PrincipalRef{{ID: "p1", Name: "Fresh Co"}, {ID: "p2", Name: "Blue Ridge Dairy"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, previews.Count)
	assert.Equal(t, "Acme Foods - Blue Ridge Dairy - Site Visit - March 2025", previews.Previews[1].GeneratedName)

	_, updated, err := h.UpdateOpportunityName(ctx, &mcp.CallToolRequest{}, UpdateNameInput{
		CurrentName: gen.Name,
		Template:    gen.Template,
		Updates:     NameOptionsInput{PrincipalName: "Blue Ridge Dairy"},
	})
	require.NoError(t, err)
	assert.True(t, updated.AutoGenerated)
	assert.Equal(t, "Acme Foods - Blue Ridge Dairy - March 2025", updated.Name)
}

func TestGeneratePrincipalGraph(t *testing.T) {
	h := NewVizHandlers(setupTestService(t))
	ctx := context.Background()

	_, out, err := h.GeneratePrincipalGraph(ctx, &mcp.CallToolRequest{}, GenerateGraphInput{Type: "principal", PrincipalID: "p1"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Sysco")
	assert.Equal(t, 1, out.EdgeCount)
	assert.Equal(t, 2, out.NodeCount)

	_, out, err = h.GeneratePrincipalGraph(ctx, &mcp.CallToolRequest{}, GenerateGraphInput{Type: "portfolio"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.EdgeCount)

	_, _, err = h.GeneratePrincipalGraph(ctx, &mcp.CallToolRequest{}, GenerateGraphInput{Type: "principal"})
	assert.Error(t, err)
	_, _, err = h.GeneratePrincipalGraph(ctx, &mcp.CallToolRequest{}, GenerateGraphInput{Type: "org-chart"})
	assert.Error(t, err)
}

func TestReadResource(t *testing.T) {
	h := NewResourceHandlers(setupTestService(t))
	ctx := context.Background()

	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read(PrincipalsURI)
	require.NoError(t, err)
	var page models.Page
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &page))
	assert.Len(t, page.Data, 3)

	res, err = read(ResourceScheme + "principals/p1")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Sysco")

	res, err = read(AnalyticsURI)
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"total_principals": 3`)

	_, err = read("crm://contacts")
	assert.Error(t, err)
	_, err = read(ResourceScheme + "deals")
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	h := NewPromptHandlers(setupTestService(t))
	ctx := context.Background()

	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}

	res, err := get("principal-review", map[string]string{"principal_id": "p1"})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Acme Foods")
	assert.Contains(t, text, "Sysco")
	assert.Contains(t, text, "Quarterly review")

	res, err = get("follow-up-plan", nil)
	require.NoError(t, err)
	text = res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Acme Foods: 2 pending, due 2025-03-13")
	assert.NotContains(t, text, "Coastal Catch")

	_, err = get("principal-review", nil)
	assert.Error(t, err)
	_, err = get("contact-summary", nil)
	assert.Error(t, err)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	svc := setupTestService(t)
	gen := naming.New(naming.WithClock(func() time.Time { return fixedNow }))
	server := NewServer(svc, gen, svc, "test")

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"list_principal_activity", "get_principal_dashboard", "principal_activity_analytics",
		"batch_update_principals", "generate_opportunity_name", "preview_opportunity_names",
		"parse_opportunity_name", "generate_unique_opportunity_name", "update_opportunity_name",
		"generate_principal_graph",
	} {
		assert.Contains(t, names, want)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_principal_activity",
		Arguments: map[string]any{"filters": map[string]any{"search": "coastal"}},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out ListActivityOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Principals, 1)
	assert.Equal(t, "p3", out.Principals[0].PrincipalID)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_principal_dashboard",
		Arguments: map[string]any{"principal_id": "missing"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	resource, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: ResourceScheme + "principals/p2"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(resource.Contents[0].Text, "Blue Ridge Dairy"))
}
