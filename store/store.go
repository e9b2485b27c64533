// ABOUTME: Activity store holding the loaded page, query, selection and analytics
// ABOUTME: Every state change goes through a store action guarded by one mutex
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/harperreed/crmactivity/cache"
	"github.com/harperreed/crmactivity/models"
	"github.com/sirupsen/logrus"
)

// Status is the fetch state of the store.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// DefaultRefreshInterval is the real-time refresh period.
const DefaultRefreshInterval = 30 * time.Second

var ErrEmptySelection = errors.New("no principals selected")

// Service is the aggregation API the store drives.
type Service interface {
	GetSummaries(ctx context.Context, q models.Query) (*models.Page, error)
	GetDashboard(ctx context.Context, principalID string) (*models.DashboardDetail, error)
	BatchUpdate(ctx context.Context, principalIDs []string, update models.PrincipalUpdate) (int, error)
	CalculateAnalytics(records []models.ActivityRecord) models.AnalyticsSummary
}

// Options configure a store. Zero values select the defaults.
type Options struct {
	PageSize        int
	MaxSelections   int
	FenceRequests   bool
	RefreshInterval time.Duration
	StaleAfter      time.Duration
	Logger          logrus.FieldLogger
	Now             func() time.Time
}

// Store is the client-side state over the aggregation service.
type Store struct {
	svc    Service
	logger logrus.FieldLogger
	now    func() time.Time
	fence  bool
	ttl    time.Duration

	mu          sync.RWMutex
	status      Status
	err         error
	outcome     error
	inflight    int
	seq         uint64
	query       models.Query
	principals  []models.ActivityRecord
	pageInfo    models.PageInfo
	lastFetched time.Time
	dashboard   *models.DashboardDetail
	selected    *models.ActivityRecord
	selection   *selection
	analytics   *models.AnalyticsSummary

	rtMu      sync.Mutex
	scheduler gocron.Scheduler
	job       gocron.Job
	interval  time.Duration
	disposed  bool
}

// New creates a store over svc.
func New(svc Service, opts Options) *Store {
	s := &Store{
		svc:       svc,
		logger:    opts.Logger,
		now:       opts.Now,
		fence:     opts.FenceRequests,
		ttl:       opts.StaleAfter,
		interval:  opts.RefreshInterval,
		selection: newSelection(opts.MaxSelections),
		query: models.Query{
			Sort:       models.DefaultSort(),
			Pagination: models.Pagination{Page: 1, Limit: opts.PageSize},
		}.Canonical(),
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ttl <= 0 {
		s.ttl = cache.DefaultTTL
	}
	if s.interval <= 0 {
		s.interval = DefaultRefreshInterval
	}
	return s
}

// Snapshot is a consistent read of the store state.
type Snapshot struct {
	Status      Status
	Err         error
	Principals  []models.ActivityRecord
	Pagination  models.PageInfo
	Query       models.Query
	Selected    []string
	Analytics   *models.AnalyticsSummary
	Dashboard   *models.DashboardDetail
	LastFetched time.Time
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:      s.status,
		Err:         s.err,
		Principals:  append([]models.ActivityRecord(nil), s.principals...),
		Pagination:  s.pageInfo,
		Query:       s.query,
		Selected:    s.selection.ids(),
		Dashboard:   s.dashboard,
		LastFetched: s.lastFetched,
	}
	if s.analytics != nil {
		a := *s.analytics
		snap.Analytics = &a
	}
	return snap
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the failure of the last completed action, if the store is
// in the failed state.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) IsLoading() bool {
	return s.Status() == StatusLoading
}

func (s *Store) Principals() []models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActivityRecord(nil), s.principals...)
}

func (s *Store) Pagination() models.PageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageInfo
}

func (s *Store) Query() models.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SelectedPrincipal is the summary of the last loaded dashboard.
func (s *Store) SelectedPrincipal() *models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	r := *s.selected
	return &r
}

// IsDataStale reports whether no fetch has completed within the cache TTL.
func (s *Store) IsDataStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetched.IsZero() || s.now().Sub(s.lastFetched) >= s.ttl
}

// begin marks a request in flight. Page fetches get a sequence number so
// that, with fencing on, only the latest one may land.
func (s *Store) begin(pageFetch bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.status = StatusLoading
	s.err = nil
	if !pageFetch {
		return 0
	}
	s.seq++
	return s.seq
}

// finish completes a request. apply runs under the lock on success unless
// the response was fenced out by a newer page fetch.
func (s *Store) finish(seq uint64, err error, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	stale := s.fence && seq != 0 && seq != s.seq
	if !stale {
		s.outcome = err
		if err == nil && apply != nil {
			apply()
		}
	}

	if s.inflight > 0 {
		s.status = StatusLoading
		return
	}
	if s.outcome != nil {
		s.status = StatusFailed
		s.err = s.outcome
		return
	}
	s.status = StatusLoaded
	s.err = nil
}

// FetchPrincipals loads the page described by q, or by the current query
// when q is nil. On failure the loaded principals are kept.
func (s *Store) FetchPrincipals(ctx context.Context, q *models.Query) error {
	s.mu.Lock()
	if q != nil {
		s.query = q.Canonical()
	}
	want := s.query
	s.mu.Unlock()

	seq := s.begin(true)
	page, err := s.svc.GetSummaries(ctx, want)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch principal activity")
	}
	s.finish(seq, err, func() {
		s.principals = page.Data
		s.pageInfo = page.Pagination
		s.lastFetched = s.now()
	})
	return err
}

// FetchDashboard loads one principal's dashboard and selects it.
func (s *Store) FetchDashboard(ctx context.Context, principalID string) (*models.DashboardDetail, error) {
	seq := s.begin(false)
	detail, err := s.svc.GetDashboard(ctx, principalID)
	if err != nil {
		s.logger.WithError(err).WithField("principal_id", principalID).Warn("failed to fetch dashboard")
	}
	s.finish(seq, err, func() {
		s.dashboard = detail
		summary := detail.Summary
		s.selected = &summary
	})
	return detail, err
}

func (s *Store) mutateQuery(ctx context.Context, fn func(q *models.Query)) error {
	s.mu.Lock()
	q := s.query
	fn(&q)
	s.query = q.Canonical()
	s.mu.Unlock()
	return s.FetchPrincipals(ctx, nil)
}

// Search sets the free-text search and restarts at page 1.
func (s *Store) Search(ctx context.Context, text string) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		q.Filters.Search = text
		q.Pagination.Page = 1
	})
}

// UpdateFilters edits the filters in place and restarts at page 1.
func (s *Store) UpdateFilters(ctx context.Context, edit func(f *models.Filters)) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		edit(&q.Filters)
		q.Pagination.Page = 1
	})
}

// ClearFilters drops every filter, including search, and restarts at page 1.
func (s *Store) ClearFilters(ctx context.Context) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		q.Filters = models.Filters{}
		q.Pagination.Page = 1
	})
}

// UpdateSort changes the ordering and restarts at page 1.
func (s *Store) UpdateSort(ctx context.Context, order models.Sort) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		q.Sort = order
		q.Pagination.Page = 1
	})
}

// GoToPage loads page without touching filters or sort.
func (s *Store) GoToPage(ctx context.Context, page int) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		q.Pagination.Page = page
	})
}

// NextPage loads the following page; it does nothing on the last page.
func (s *Store) NextPage(ctx context.Context) error {
	s.mu.RLock()
	info := s.pageInfo
	s.mu.RUnlock()
	if !info.HasNext {
		return nil
	}
	return s.GoToPage(ctx, info.Page+1)
}

// PreviousPage loads the preceding page; it does nothing on the first page.
func (s *Store) PreviousPage(ctx context.Context) error {
	s.mu.RLock()
	info := s.pageInfo
	s.mu.RUnlock()
	if !info.HasPrevious {
		return nil
	}
	return s.GoToPage(ctx, info.Page-1)
}

// UpdatePageSize changes the page size and restarts at page 1, since the
// old page number no longer addresses the same rows.
func (s *Store) UpdatePageSize(ctx context.Context, limit int) error {
	return s.mutateQuery(ctx, func(q *models.Query) {
		q.Pagination.Limit = limit
		q.Pagination.Page = 1
	})
}

// BatchUpdate applies update to the selected principals. Success clears
// the selection and patches the loaded rows; failure keeps the selection.
func (s *Store) BatchUpdate(ctx context.Context, update models.PrincipalUpdate) (int, error) {
	s.mu.RLock()
	ids := s.selection.ids()
	s.mu.RUnlock()
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	seq := s.begin(false)
	n, err := s.svc.BatchUpdate(ctx, ids, update)
	if err != nil {
		s.logger.WithError(err).WithField("selected", len(ids)).Warn("batch update failed")
	}
	s.finish(seq, err, func() {
		targets := make(map[string]bool, len(ids))
		for _, id := range ids {
			targets[id] = true
		}
		for i := range s.principals {
			if targets[s.principals[i].PrincipalID] {
				update.ApplyTo(&s.principals[i])
			}
		}
		s.selection.clear()
		s.analytics = nil
	})
	return n, err
}

// ByActivityStatus groups the loaded page by activity status.
func (s *Store) ByActivityStatus() map[models.ActivityStatus][]models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[models.ActivityStatus][]models.ActivityRecord, len(models.ActivityStatuses))
	for _, st := range models.ActivityStatuses {
		groups[st] = []models.ActivityRecord{}
	}
	for _, r := range s.principals {
		groups[r.ActivityStatus] = append(groups[r.ActivityStatus], r)
	}
	return groups
}

// UnknownOrganizationType groups records without an organization type.
const UnknownOrganizationType = "unknown"

// ByOrganizationType groups the loaded page by organization type.
func (s *Store) ByOrganizationType() map[string][]models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string][]models.ActivityRecord)
	for _, r := range s.principals {
		key := r.OrganizationType
		if key == "" {
			key = UnknownOrganizationType
		}
		groups[key] = append(groups[key], r)
	}
	return groups
}

// TopPerforming returns up to n loaded records by engagement score.
func (s *Store) TopPerforming(n int) []models.ActivityRecord {
	records := s.Principals()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EngagementScore > records[j].EngagementScore
	})
	if n < 0 {
		n = 0
	}
	if n < len(records) {
		records = records[:n]
	}
	return records
}

// RequiringFollowUp returns loaded records with pending follow-ups, the
// earliest follow-up date first and undated ones last.
func (s *Store) RequiringFollowUp() []models.ActivityRecord {
	var out []models.ActivityRecord
	for _, r := range s.Principals() {
		if r.RequiresFollowUp() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextFollowUpDate, out[j].NextFollowUpDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out
}

// CalculateAnalytics returns the analytics of the loaded page, reusing the
// previous result while it is younger than the staleness window unless
// force is set.
func (s *Store) CalculateAnalytics(force bool) models.AnalyticsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculateLocked(force)
}

func (s *Store) calculateLocked(force bool) models.AnalyticsSummary {
	if !force && s.analytics != nil && s.now().Sub(s.analytics.LastCalculated) < s.ttl {
		return *s.analytics
	}
	summary := s.svc.CalculateAnalytics(s.principals)
	s.analytics = &summary
	return summary
}

// Analytics returns the last calculated summary, if any.
func (s *Store) Analytics() *models.AnalyticsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analytics == nil {
		return nil
	}
	a := *s.analytics
	return &a
}

// Dispose stops the refresh loop and drops all state.
func (s *Store) Dispose() error {
	err := s.StopRealTimeUpdates()

	s.rtMu.Lock()
	s.disposed = true
	s.rtMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusIdle
	s.err = nil
	s.outcome = nil
	s.principals = nil
	s.pageInfo = models.PageInfo{}
	s.dashboard = nil
	s.selected = nil
	s.analytics = nil
	s.lastFetched = time.Time{}
	s.selection.clear()
	return err
}
