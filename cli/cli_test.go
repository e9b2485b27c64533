// ABOUTME: Tests for the CLI subcommands
// ABOUTME: Runs each command against an in-memory database and captures its output
package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/crmactivity/cache"
	"github.com/harperreed/crmactivity/config"
	"github.com/harperreed/crmactivity/db"
	"github.com/harperreed/crmactivity/models"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupTestCLI(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)

	ctx := context.Background()
	due := time.Now().AddDate(0, 0, -1)
	records := []models.ActivityRecord{
		{PrincipalID: "p1", PrincipalName: "Acme Foods", OrganizationType: "principal", EngagementScore: 85,
			ActivityStatus: models.StatusActive, FollowUpsRequired: 2, NextFollowUpDate: &due, IsActive: true,
			TotalOpportunities: 3, ActiveOpportunities: 1, WonOpportunities: 1, LostOpportunities: 1},
		{PrincipalID: "p2", PrincipalName: "Blue Ridge Dairy", OrganizationType: "principal", EngagementScore: 45,
			ActivityStatus: models.StatusModerate, IsActive: true},
		{PrincipalID: "p3", PrincipalName: "Coastal Catch", OrganizationType: "distributor", EngagementScore: 10,
			ActivityStatus: models.StatusLow, IsActive: true},
	}
	for i := range records {
		require.NoError(t, db.CreateSummary(ctx, database, &records[i]))
	}
	require.NoError(t, db.CreateDistributorRelationship(ctx, database, &models.DistributorRelationship{
		PrincipalID: "p1", DistributorID: "d1", DistributorName: "Sysco", RelationshipStatus: "active", TotalVolume: 120000,
	}))
	require.NoError(t, db.CreateOpportunity(ctx, database, &models.Opportunity{
		Name: "Acme Foods - Fresh Co - March 2025", PrincipalID: "p1",
	}))

	logger, _ := logtest.NewNullLogger()
	cfg := config.DefaultConfig()
	cfg.DatabasePath = ":memory:"
	qc := cache.New(cache.NewMemoryBackend(time.Minute), cache.WithLogger(logger))

	app := newApp(cfg, logger, database, qc, "test")
	var out bytes.Buffer
	app.Out = &out
	t.Cleanup(func() { _ = app.Close() })
	return app, &out
}

func TestActivityListCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityListCommand(app, []string{}))
	text := out.String()
	assert.Contains(t, text, "Acme Foods")
	assert.Contains(t, text, "Coastal Catch")
	assert.Contains(t, text, "Page 1 of 1 (3 principals)")
	assert.Less(t, strings.Index(text, "Acme Foods"), strings.Index(text, "Coastal Catch"))
}

func TestActivityListCommandFiltersAsJSON(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityListCommand(app, []string{"--type", "principal", "--status", "moderate", "--format", "json"}))

	var page models.Page
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "p2", page.Data[0].PrincipalID)
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestActivityListCommandRejectsBadInput(t *testing.T) {
	app, _ := setupTestCLI(t)

	assert.Error(t, ActivityListCommand(app, []string{"--status", "busy"}))
	assert.Error(t, ActivityListCommand(app, []string{"--sort", "password"}))
	assert.Error(t, ActivityListCommand(app, []string{"--follow-up", "maybe"}))
	assert.Error(t, ActivityListCommand(app, []string{"--format", "yaml"}))
}

func TestActivityDashboardCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityDashboardCommand(app, []string{"p1"}))
	assert.Contains(t, out.String(), "Acme Foods (p1)")
	assert.Contains(t, out.String(), "Sysco (active)")

	assert.Error(t, ActivityDashboardCommand(app, []string{"missing"}))
	assert.Error(t, ActivityDashboardCommand(app, []string{}))
}

func TestActivityAnalyticsCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityAnalyticsCommand(app, []string{"--json"}))

	var summary models.AnalyticsSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalPrincipals)
	assert.Equal(t, 3, summary.TotalOpportunities)
	assert.Equal(t, 1, summary.ActivityStatusCounts[models.StatusActive])

	out.Reset()
	require.NoError(t, ActivityAnalyticsCommand(app, []string{}))
	assert.Contains(t, out.String(), "PRINCIPAL ACTIVITY DASHBOARD")
}

func TestActivityExportCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	t.Run("CSVToStdout", func(t *testing.T) {
		out.Reset()
		require.NoError(t, ActivityExportCommand(app, []string{"--ids", "p2,p3"}))

		rows, err := csv.NewReader(out).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Blue Ridge Dairy", rows[1][0])
		assert.Equal(t, "Coastal Catch", rows[2][0])
	})

	t.Run("XLSXToFile", func(t *testing.T) {
		out.Reset()
		path := filepath.Join(t.TempDir(), "principals.xlsx")
		require.NoError(t, ActivityExportCommand(app, []string{"--format", "xlsx", "--output", path}))
		assert.Contains(t, out.String(), "Exported 3 principals")

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("Principals")
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		assert.Error(t, ActivityExportCommand(app, []string{"--format", "pdf"}))
	})
}

func TestActivityUpdateCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityUpdateCommand(app, []string{"--active", "false", "--status", "paused", "p1,p2"}))
	assert.Contains(t, out.String(), "Updated 2 principals")

	out.Reset()
	require.NoError(t, ActivityDashboardCommand(app, []string{"--json", "p1"}))
	var detail models.DashboardDetail
	require.NoError(t, json.Unmarshal(out.Bytes(), &detail))
	assert.False(t, detail.Summary.IsActive)
	assert.Equal(t, "paused", detail.Summary.PrincipalStatus)

	assert.Error(t, ActivityUpdateCommand(app, []string{"p1"}), "no fields")
	assert.Error(t, ActivityUpdateCommand(app, []string{"--active", "true"}), "no ids")
	assert.Error(t, ActivityUpdateCommand(app, []string{"--follow-up-date", "soon", "p1"}))
}

func TestActivityUpdateCommandRespectsBatchLimit(t *testing.T) {
	app, _ := setupTestCLI(t)
	app.Config.MaxSelections = 2

	err := ActivityUpdateCommand(app, []string{"--type", "broker", "p1", "p2", "p3"})
	assert.ErrorContains(t, err, "at most 2")
}

func TestActivityFollowUpsCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityFollowUpsCommand(app, []string{"--overdue-only"}))
	assert.Contains(t, out.String(), "Acme Foods")
	assert.NotContains(t, out.String(), "Blue Ridge Dairy")
}

func TestActivityWatchCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityWatchCommand(app, []string{"--interval", "10ms", "--count", "2"}))
	assert.Equal(t, 2, strings.Count(out.String(), "PRINCIPAL ACTIVITY DASHBOARD"))
}

func TestActivityGraphCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	require.NoError(t, ActivityGraphCommand(app, []string{"p1"}))
	assert.Contains(t, out.String(), "Sysco")

	out.Reset()
	path := filepath.Join(t.TempDir(), "portfolio.svg")
	require.NoError(t, ActivityGraphCommand(app, []string{"--portfolio", "--format", "svg", "--output", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	assert.Error(t, ActivityGraphCommand(app, []string{}))
}

func TestNamesCommands(t *testing.T) {
	app, out := setupTestCLI(t)
	nameArgs := []string{"--org", "Acme Foods", "--principal", "Fresh Co", "--date", "2025-03-01"}

	require.NoError(t, NamesGenerateCommand(app, nameArgs))
	assert.Equal(t, "Acme Foods - Fresh Co - March 2025\n", out.String())

	out.Reset()
	require.NoError(t, NamesTemplateCommand(app, nameArgs))
	assert.Equal(t, "{{organization}} - {{principal}} - {{month}} {{year}}\n", out.String())

	out.Reset()
	require.NoError(t, NamesUniqueCommand(app, nameArgs))
	assert.Equal(t, "Acme Foods - Fresh Co - March 2025 (2)\n", out.String())

	out.Reset()
	require.NoError(t, NamesParseCommand(app, []string{"Acme Foods - Fresh Co - Spring Promo - March 2025"}))
	assert.Contains(t, out.String(), "Spring Promo")
	assert.Contains(t, out.String(), "March 2025")

	out.Reset()
	require.NoError(t, NamesUpdateCommand(app, []string{"--principal", "Green Acres", "Acme Foods - Fresh Co - March 2025"}))
	assert.Equal(t, "Acme Foods - Green Acres - March 2025\n", out.String())

	out.Reset()
	require.NoError(t, NamesPreviewCommand(app, append(nameArgs, "a=Alpha Farms", "b=Beta Bakery")))
	assert.Contains(t, out.String(), "Acme Foods - Alpha Farms - March 2025")
	assert.Contains(t, out.String(), "Acme Foods - Beta Bakery - March 2025")

	assert.Error(t, NamesParseCommand(app, []string{"not a generated name"}))
}

func TestSeedCommand(t *testing.T) {
	app, out := setupTestCLI(t)

	// Prime the cache, then make sure seeding is visible afterwards.
	require.NoError(t, ActivityListCommand(app, []string{"--format", "json"}))
	out.Reset()

	require.NoError(t, SeedCommand(app, []string{"--seed", "7"}))
	assert.Contains(t, out.String(), "Seeded")

	out.Reset()
	require.NoError(t, ActivityListCommand(app, []string{"--format", "json"}))
	var page models.Page
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	assert.Greater(t, page.Pagination.Total, 3)
}
