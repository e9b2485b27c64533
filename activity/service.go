// ABOUTME: Aggregation service over the principal activity collections
// ABOUTME: Builds source queries, applies the query cache and times every call
package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/crmactivity/analytics"
	"github.com/harperreed/crmactivity/cache"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/query"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// DefaultSlowQueryThreshold is the duration above which an operation is
// reported as slow.
const DefaultSlowQueryThreshold = time.Second

// RecentTimelineLimit caps the interactions returned on a dashboard.
const RecentTimelineLimit = 10

// Cache key namespace for dashboard details.
const dashboardCollection = "principal_dashboard"

// Service answers activity queries from the cache or the source.
type Service struct {
	client    *query.Client
	cache     *cache.QueryCache
	logger    logrus.FieldLogger
	metrics   *Metrics
	threshold time.Duration
	now       func() time.Time
}

type Option func(*Service)

// WithCache enables response caching.
func WithCache(c *cache.QueryCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.threshold = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a service reading from source.
func NewService(source query.Source, opts ...Option) *Service {
	s := &Service{
		client:    query.NewClient(source),
		logger:    logrus.StandardLogger(),
		metrics:   NewMetrics(nil),
		threshold: DefaultSlowQueryThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the query cache, or nil when caching is disabled.
func (s *Service) Cache() *cache.QueryCache {
	return s.cache
}

// GetSummaries returns one page of activity records matching q.
func (s *Service) GetSummaries(ctx context.Context, q models.Query) (*models.Page, error) {
	const op = "get_summaries"
	defer s.track(op, time.Now())

	q = q.Canonical()
	key := cache.KeyFor(models.CollectionActivitySummary, q)

	var cached models.Page
	if s.cacheGet(ctx, op, key, &cached) {
		return &cached, nil
	}

	b := s.client.From(models.CollectionActivitySummary).Count()
	applyFilters(b, q.Filters)
	b.Order(q.Sort.Field, q.Sort.Order == models.SortAsc)
	if q.Sort.Field != "principal_id" {
		// Tie-break so pages never overlap when the sort field repeats.
		b.Order("principal_id", true)
	}
	offset := q.Pagination.Offset()
	b.Range(offset, offset+q.Pagination.Limit-1)

	resp, err := s.execute(ctx, b)
	if err != nil {
		return nil, err
	}

	var records []models.ActivityRecord
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode activity summaries: %w", err)
	}
	if records == nil {
		records = []models.ActivityRecord{}
	}
	for i := range records {
		records[i].Normalize()
	}

	total := len(records)
	if resp.Count != nil {
		total = *resp.Count
	}

	page := &models.Page{
		Data:       records,
		Pagination: models.NewPageInfo(q.Pagination, total),
	}
	s.cacheSet(ctx, key, page)
	return page, nil
}

// GetDashboard loads one principal with its enrichments. An enrichment that
// fails is logged and left empty; only the summary lookup can fail the call.
func (s *Service) GetDashboard(ctx context.Context, principalID string) (*models.DashboardDetail, error) {
	const op = "get_dashboard"
	defer s.track(op, time.Now())

	key := cache.KeyFor(dashboardCollection, principalID)
	var cached models.DashboardDetail
	if s.cacheGet(ctx, op, key, &cached) {
		return &cached, nil
	}

	resp, err := s.execute(ctx, s.client.From(models.CollectionActivitySummary).
		Eq("principal_id", principalID).
		Single())
	if err != nil {
		return nil, err
	}

	detail := &models.DashboardDetail{
		DistributorRelationships: []models.DistributorRelationship{},
		ProductPerformance:       []models.ProductPerformance{},
		RecentTimeline:           []models.TimelineEntry{},
	}
	if err := json.Unmarshal(resp.Data, &detail.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode principal summary: %w", err)
	}
	detail.Summary.Normalize()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.enrich(ctx, "distributor_relationships", &detail.DistributorRelationships,
			s.client.From(models.CollectionDistributorRelationships).
				Eq("principal_id", principalID).
				Order("total_volume", false))
	}()
	go func() {
		defer wg.Done()
		s.enrich(ctx, "product_performance", &detail.ProductPerformance,
			s.client.From(models.CollectionProductPerformance).
				Eq("principal_id", principalID).
				Order("total_value", false))
	}()
	go func() {
		defer wg.Done()
		s.enrich(ctx, "recent_timeline", &detail.RecentTimeline,
			s.client.From(models.CollectionInteractions).
				Eq("principal_id", principalID).
				Order("interaction_date", false).
				Limit(RecentTimelineLimit))
	}()
	wg.Wait()

	s.cacheSet(ctx, key, detail)
	return detail, nil
}

// BatchUpdate applies update to every listed principal and returns the
// number of rows changed. A successful update empties the query cache.
func (s *Service) BatchUpdate(ctx context.Context, principalIDs []string, update models.PrincipalUpdate) (int, error) {
	const op = "batch_update"
	defer s.track(op, time.Now())

	if len(principalIDs) == 0 {
		return 0, ErrNoTargets
	}
	if update.IsEmpty() {
		return 0, ErrEmptyUpdate
	}

	batchID := ulid.Make().String()
	logger := s.logger.WithFields(logrus.Fields{
		"batch_id":   batchID,
		"principals": len(principalIDs),
	})

	ids := make([]any, len(principalIDs))
	for i, id := range principalIDs {
		ids[i] = id
	}

	resp, err := s.execute(ctx, s.client.From(models.CollectionActivitySummary).
		Update(update.Values()).
		In("principal_id", ids...))
	if err != nil {
		logger.WithError(err).Warn("batch update failed")
		return 0, err
	}

	updated := len(principalIDs)
	if resp.Count != nil {
		updated = *resp.Count
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			logger.WithError(err).Warn("failed to invalidate query cache")
		}
	}

	logger.WithField("updated", updated).Info("batch update applied")
	return updated, nil
}

// OpportunityNameTaken reports whether an opportunity already has name.
func (s *Service) OpportunityNameTaken(ctx context.Context, name string) (bool, error) {
	const op = "opportunity_name_taken"
	defer s.track(op, time.Now())

	resp, err := s.execute(ctx, s.client.From(models.CollectionOpportunities).
		Select("id").
		Eq("name", name).
		Limit(1))
	if err != nil {
		return false, err
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return false, fmt.Errorf("failed to decode opportunities: %w", err)
	}
	return len(rows) > 0, nil
}

// CalculateAnalytics reduces records into a summary stamped with the
// service clock.
func (s *Service) CalculateAnalytics(records []models.ActivityRecord) models.AnalyticsSummary {
	return analytics.Calculate(records, s.now())
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// execute runs b and folds transport errors, in-band errors, missing data
// and source panics into one error return.
func (s *Service) execute(ctx context.Context, b *query.Builder) (resp *query.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("collection", b.Collection()).Errorf("query source panicked: %v", r)
			resp, err = nil, recoverError(r)
		}
	}()

	resp, err = b.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNoData
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if b.UpdateValues() == nil && isNull(resp.Data) {
		return nil, ErrNoData
	}
	return resp, nil
}

// enrich decodes the rows of b into dest, leaving dest untouched on failure.
func (s *Service) enrich(ctx context.Context, name string, dest any, b *query.Builder) {
	resp, err := s.execute(ctx, b)
	if err == nil {
		err = json.Unmarshal(resp.Data, dest)
	}
	if err != nil {
		s.logger.WithError(err).WithField("enrichment", name).Warn("dashboard enrichment failed")
	}
}

func (s *Service) cacheGet(ctx context.Context, op, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	if s.cache.Get(ctx, key, dest) {
		s.metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	s.metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *Service) cacheSet(ctx context.Context, key string, payload any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to cache response")
	}
}

// track records the duration of op and warns when it is slow. It never
// affects the result.
func (s *Service) track(op string, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.QueryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if elapsed <= s.threshold {
		return
	}
	s.metrics.SlowQueries.WithLabelValues(op).Inc()
	s.logger.WithFields(logrus.Fields{
		"operation":    op,
		"duration_ms":  elapsed.Milliseconds(),
		"threshold_ms": s.threshold.Milliseconds(),
	}).Warn("slow query")
}

func applyFilters(b *query.Builder, f models.Filters) {
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		b.Or(
			query.ILike("principal_name", pattern),
			query.ILike("primary_contact_name", pattern),
		)
	}
	if len(f.ActivityStatus) > 0 {
		statuses := make([]any, len(f.ActivityStatus))
		for i, st := range f.ActivityStatus {
			statuses[i] = string(st)
		}
		b.In("activity_status", statuses...)
	}
	if r := f.EngagementScoreRange; r != nil {
		b.Gte("engagement_score", r.Min)
		b.Lte("engagement_score", r.Max)
	}
	if f.OrganizationType != "" {
		b.Eq("organization_type", f.OrganizationType)
	}
	if f.FollowUpRequired != nil {
		if *f.FollowUpRequired {
			b.Gte("follow_ups_required", 1)
		} else {
			b.Eq("follow_ups_required", 0)
		}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
