// ABOUTME: Tests for the principal activity TUI
// ABOUTME: Drives the model with key messages over an in-memory service
package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/crmactivity/analytics"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type fakeService struct {
	records  []models.ActivityRecord
	queries  []models.Query
	updated  []string
	lastEdit models.PrincipalUpdate
}

func (f *fakeService) GetSummaries(_ context.Context, q models.Query) (*models.Page, error) {
	f.queries = append(f.queries, q)
	var out []models.ActivityRecord
	for _, r := range f.records {
		if len(q.Filters.ActivityStatus) > 0 && r.ActivityStatus != q.Filters.ActivityStatus[0] {
			continue
		}
		if q.Filters.Search != "" && !strings.Contains(strings.ToLower(r.PrincipalName), strings.ToLower(q.Filters.Search)) {
			continue
		}
		out = append(out, r)
	}
	return &models.Page{Data: out, Pagination: models.NewPageInfo(q.Pagination, len(out))}, nil
}

func (f *fakeService) GetDashboard(_ context.Context, id string) (*models.DashboardDetail, error) {
	for _, r := range f.records {
		if r.PrincipalID == id {
			return &models.DashboardDetail{
				Summary: r,
				DistributorRelationships: []models.DistributorRelationship{
					{DistributorName: "Sysco", RelationshipStatus: "active", TotalVolume: 50000},
				},
			}, nil
		}
	}
	return nil, context.Canceled
}

func (f *fakeService) BatchUpdate(_ context.Context, ids []string, update models.PrincipalUpdate) (int, error) {
	f.updated = ids
	f.lastEdit = update
	return len(ids), nil
}

func (f *fakeService) CalculateAnalytics(records []models.ActivityRecord) models.AnalyticsSummary {
	return analytics.Calculate(records, fixedNow)
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func setupTestModel(t *testing.T) (Model, *fakeService) {
	t.Helper()
	svc := &fakeService{records: []models.ActivityRecord{
		{PrincipalID: "p1", PrincipalName: "Acme Foods", ActivityStatus: models.StatusActive, EngagementScore: 90, PrimaryContactName: "Jane Doe"},
		{PrincipalID: "p2", PrincipalName: "Blue Ridge", ActivityStatus: models.StatusLow, EngagementScore: 30},
		{PrincipalID: "p3", PrincipalName: "Coastal Dairy", ActivityStatus: models.StatusModerate, EngagementScore: 55},
	}}
	logger, _ := logtest.NewNullLogger()
	st := store.New(svc, store.Options{Logger: logger})
	t.Cleanup(func() { _ = st.Dispose() })

	if err := st.FetchPrincipals(context.Background(), nil); err != nil {
		t.Fatalf("initial fetch failed: %v", err)
	}
	return NewModel(st), svc
}

// press feeds a key to the model and runs the store command it returns.
// Commands issued while typing a search only drive the cursor blink.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil && !m.searching {
		if msg := cmd(); msg != nil {
			if _, ok := msg.(tea.BatchMsg); !ok {
				next, _ = m.Update(msg)
				m = next.(Model)
			}
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListViewRendersPrincipals(t *testing.T) {
	m, _ := setupTestModel(t)

	view := m.View()
	for _, want := range []string{"PRINCIPAL ACTIVITY", "Acme Foods", "Blue Ridge", "Page 1 of 1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected list view to contain %q", want)
		}
	}
}

func TestNavigationStaysInBounds(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selectedRow != 0 {
		t.Fatalf("expected row 0, got %d", m.selectedRow)
	}

	for i := 0; i < 5; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.selectedRow != 2 {
		t.Fatalf("expected row 2, got %d", m.selectedRow)
	}
}

func TestEnterOpensDashboard(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.viewMode != ViewDetail {
		t.Fatalf("expected detail view, got %v", m.viewMode)
	}

	view := m.View()
	if !strings.Contains(view, "ACME FOODS") || !strings.Contains(view, "Sysco") {
		t.Fatalf("dashboard missing principal or distributor:\n%s", view)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ViewList {
		t.Fatalf("expected list view after esc, got %v", m.viewMode)
	}
}

func TestSearchRefetches(t *testing.T) {
	m, svc := setupTestModel(t)

	m = press(t, m, runes("/"))
	if !m.searching {
		t.Fatal("expected search mode")
	}
	for _, r := range "blue" {
		m = press(t, m, runes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.searching {
		t.Fatal("expected search mode to end on enter")
	}
	last := svc.queries[len(svc.queries)-1]
	if last.Filters.Search != "blue" {
		t.Fatalf("expected search 'blue', got %q", last.Filters.Search)
	}
	if got := len(m.store.Principals()); got != 1 {
		t.Fatalf("expected 1 principal, got %d", got)
	}
}

func TestStatusFilterCycles(t *testing.T) {
	m, svc := setupTestModel(t)

	m = press(t, m, runes("f"))
	last := svc.queries[len(svc.queries)-1]
	if len(last.Filters.ActivityStatus) != 1 || last.Filters.ActivityStatus[0] != models.StatusActive {
		t.Fatalf("expected ACTIVE filter, got %v", last.Filters.ActivityStatus)
	}

	for i := 0; i < len(models.ActivityStatuses); i++ {
		m = press(t, m, runes("f"))
	}
	last = svc.queries[len(svc.queries)-1]
	if len(last.Filters.ActivityStatus) != 0 {
		t.Fatalf("expected filter cleared after full cycle, got %v", last.Filters.ActivityStatus)
	}
	if m.statusFilter != 0 {
		t.Fatalf("expected filter index 0, got %d", m.statusFilter)
	}
}

func TestSortCycles(t *testing.T) {
	m, svc := setupTestModel(t)

	_ = press(t, m, runes("s"))
	last := svc.queries[len(svc.queries)-1]
	if last.Sort != sortCycle[1] {
		t.Fatalf("expected %v, got %v", sortCycle[1], last.Sort)
	}

	if got := nextSort(models.Sort{Field: "lead_score"}); got != sortCycle[0] {
		t.Fatalf("expected unknown sort to restart cycle, got %v", got)
	}
}

func TestSelectionAndBatchDeactivate(t *testing.T) {
	m, svc := setupTestModel(t)

	m = press(t, m, runes("x"))
	if m.viewMode != ViewList || m.message == "" {
		t.Fatal("expected a message when nothing is selected")
	}

	m = press(t, m, runes(" "))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, runes(" "))
	if !strings.Contains(m.View(), "[x]") {
		t.Fatal("expected selection markers in table")
	}

	m = press(t, m, runes("x"))
	if m.viewMode != ViewConfirmBatch {
		t.Fatalf("expected confirm view, got %v", m.viewMode)
	}
	if !strings.Contains(m.View(), "2 principals") {
		t.Fatal("expected confirm dialog to show selection count")
	}

	m = press(t, m, runes("y"))
	if m.viewMode != ViewList {
		t.Fatalf("expected list view after update, got %v", m.viewMode)
	}
	if len(svc.updated) != 2 || svc.lastEdit.IsActive == nil || *svc.lastEdit.IsActive {
		t.Fatalf("expected 2 principals deactivated, got %v", svc.updated)
	}
	if m.message != "2 principals updated" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestConfirmBatchCancel(t *testing.T) {
	m, svc := setupTestModel(t)

	m = press(t, m, runes("a"))
	m = press(t, m, runes("x"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.viewMode != ViewList {
		t.Fatalf("expected list view, got %v", m.viewMode)
	}
	if svc.updated != nil {
		t.Fatal("expected no update after cancel")
	}
	if got := len(m.store.SelectedIDs()); got != 3 {
		t.Fatalf("expected selection kept, got %d", got)
	}
}

func TestAnalyticsTab(t *testing.T) {
	m, _ := setupTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.viewMode != ViewAnalytics {
		t.Fatalf("expected analytics view, got %v", m.viewMode)
	}
	view := m.View()
	if !strings.Contains(view, "PRINCIPAL ACTIVITY DASHBOARD") || !strings.Contains(view, "3 principals") {
		t.Fatalf("analytics view missing summary:\n%s", view)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.viewMode != ViewList {
		t.Fatalf("expected list view, got %v", m.viewMode)
	}
}

func TestWindowResize(t *testing.T) {
	m, _ := setupTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if m.width != 120 || m.height != 40 {
		t.Fatalf("expected 120x40, got %dx%d", m.width, m.height)
	}
}

func TestQuit(t *testing.T) {
	m, _ := setupTestModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected QuitMsg")
	}
}
