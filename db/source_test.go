// ABOUTME: Tests for the SQLite query source
// ABOUTME: Covers filters, OR search, ordering, ranges, counts, single rows and updates
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSource(t *testing.T) (*sql.DB, *query.Client) {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	records := []models.ActivityRecord{
		{PrincipalID: "p1", PrincipalName: "Acme Foods", OrganizationType: "principal", PrimaryContactName: "Jane Doe", EngagementScore: 90, ActivityStatus: models.StatusActive, IsActive: true, ProductCategories: []string{"Dairy", "Frozen"}},
		{PrincipalID: "p2", PrincipalName: "Blue Ridge", OrganizationType: "principal", PrimaryContactName: "Sam Acmeson", EngagementScore: 55, ActivityStatus: models.StatusModerate, IsActive: true},
		{PrincipalID: "p3", PrincipalName: "Coastal Catch", OrganizationType: "distributor", EngagementScore: 20, ActivityStatus: models.StatusLow, FollowUpsRequired: 2},
		{PrincipalID: "p4", PrincipalName: "Delta 100%", OrganizationType: "principal", EngagementScore: 0, ActivityStatus: models.StatusNoActivity},
	}
	for i := range records {
		require.NoError(t, CreateSummary(ctx, db, &records[i]))
	}
	return db, query.NewClient(NewSource(db))
}

func decodeRecords(t *testing.T, resp *query.Response) []models.ActivityRecord {
	t.Helper()
	require.Nil(t, resp.Error)
	var out []models.ActivityRecord
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func ids(records []models.ActivityRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PrincipalID
	}
	return out
}

func TestSourceSelectOrdersAndCounts(t *testing.T) {
	_, client := setupSource(t)

	resp, err := client.From(TableActivitySummary).
		Order("engagement_score", false).
		Range(0, 1).
		Count().
		Execute(context.Background())
	require.NoError(t, err)

	records := decodeRecords(t, resp)
	assert.Equal(t, []string{"p1", "p2"}, ids(records))
	require.NotNil(t, resp.Count)
	assert.Equal(t, 4, *resp.Count)

	assert.True(t, records[0].IsActive)
	assert.Equal(t, []string{"Dairy", "Frozen"}, records[0].ProductCategories)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestSourceSecondPageRange(t *testing.T) {
	_, client := setupSource(t)

	resp, err := client.From(TableActivitySummary).
		Order("engagement_score", true).
		Range(2, 3).
		Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids(decodeRecords(t, resp)))
	assert.Nil(t, resp.Count)
}

func TestSourceFilters(t *testing.T) {
	_, client := setupSource(t)
	ctx := context.Background()

	resp, err := client.From(TableActivitySummary).
		In("activity_status", models.StatusActive, models.StatusLow).
		Order("principal_name", true).
		Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids(decodeRecords(t, resp)))

	resp, err = client.From(TableActivitySummary).
		Gte("engagement_score", 20.0).
		Lte("engagement_score", 60.0).
		Eq("organization_type", "principal").
		Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(decodeRecords(t, resp)))

	resp, err = client.From(TableActivitySummary).Eq("is_active", true).Order("principal_name", true).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids(decodeRecords(t, resp)))

	resp, err = client.From(TableActivitySummary).In("activity_status").Execute(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestSourceOrSearchIsCaseInsensitive(t *testing.T) {
	_, client := setupSource(t)

	resp, err := client.From(TableActivitySummary).
		Or(query.ILike("principal_name", "%ACME%"), query.ILike("primary_contact_name", "%acme%")).
		Order("principal_name", true).
		Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids(decodeRecords(t, resp)))
}

func TestSourceEscapedLikePattern(t *testing.T) {
	_, client := setupSource(t)

	resp, err := client.From(TableActivitySummary).
		Or(query.ILike("principal_name", `%100\%%`)).
		Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, ids(decodeRecords(t, resp)))
}

func TestSourceSingle(t *testing.T) {
	_, client := setupSource(t)
	ctx := context.Background()

	resp, err := client.From(TableActivitySummary).Eq("principal_id", "p3").Single().Execute(ctx)
	require.NoError(t, err)
	require.Nil(t, resp.Error)

	var record models.ActivityRecord
	require.NoError(t, json.Unmarshal(resp.Data, &record))
	assert.Equal(t, "Coastal Catch", record.PrincipalName)
	assert.Equal(t, 2, record.FollowUpsRequired)

	resp, err = client.From(TableActivitySummary).Eq("principal_id", "missing").Single().Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeSingleRow, resp.Error.Code)
	assert.Nil(t, resp.Data)
}

func TestSourceSelectFields(t *testing.T) {
	_, client := setupSource(t)

	resp, err := client.From(TableActivitySummary).
		Select("principal_id", "principal_name").
		Eq("principal_id", "p1").
		Execute(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"principal_id":"p1","principal_name":"Acme Foods"}]`, string(resp.Data))
}

func TestSourceUnknownIdentifiers(t *testing.T) {
	_, client := setupSource(t)
	ctx := context.Background()

	resp, err := client.From("nope").Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUndefinedTable, resp.Error.Code)

	resp, err = client.From("principals; DROP TABLE opportunities").Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUndefinedTable, resp.Error.Code)

	resp, err = client.From(TableActivitySummary).Eq("bogus", 1).Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUndefinedColumn, resp.Error.Code)

	resp, err = client.From(TableActivitySummary).Order("bogus", true).Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUndefinedColumn, resp.Error.Code)
}

func TestSourceUpdate(t *testing.T) {
	db, client := setupSource(t)
	ctx := context.Background()

	resp, err := client.From(TableActivitySummary).
		Update(map[string]any{"principal_status": "archived", "is_active": false}).
		In("principal_id", "p1", "p2").
		Execute(ctx)
	require.NoError(t, err)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 2, *resp.Count)

	var status string
	var active bool
	require.NoError(t, db.QueryRow("SELECT principal_status, is_active FROM principal_activity_summary WHERE principal_id = 'p2'").Scan(&status, &active))
	assert.Equal(t, "archived", status)
	assert.False(t, active)

	resp, err = client.From(TableActivitySummary).Update(map[string]any{"bogus": 1}).Execute(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUndefinedColumn, resp.Error.Code)
}

func TestSeed(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	n, err := Seed(context.Background(), db, 42)
	require.NoError(t, err)
	assert.Equal(t, len(seedPrincipals), n)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM principal_activity_summary").Scan(&count))
	assert.Equal(t, n, count)

	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM opportunities").Scan(&count))
	assert.Equal(t, n, count)
}
