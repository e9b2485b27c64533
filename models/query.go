// ABOUTME: Filter, sort and pagination descriptors for activity queries
// ABOUTME: Canonical form of the descriptor is the query cache key source
package models

import (
	"sort"
	"strings"
)

// Named collections of the remote data source.
const (
	CollectionActivitySummary          = "principal_activity_summary"
	CollectionDistributorRelationships = "distributor_relationships"
	CollectionProductPerformance       = "product_performance"
	CollectionInteractions             = "interactions"
	CollectionOpportunities            = "opportunities"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Defaults applied when a descriptor leaves a part unset.
const (
	DefaultSortField = "engagement_score"
	DefaultPageSize  = 20
	MaxPageSize      = 500
)

// SortableFields is the closed set of fields a summary query may sort by.
var SortableFields = map[string]bool{
	"principal_name":        true,
	"organization_type":     true,
	"engagement_score":      true,
	"lead_score":            true,
	"total_interactions":    true,
	"total_opportunities":   true,
	"last_interaction_date": true,
	"next_follow_up_date":   true,
	"follow_ups_required":   true,
	"activity_status":       true,
	"updated_at":            true,
}

// ScoreRange bounds the engagement score, inclusive on both ends.
type ScoreRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filters is the closed set of predicates a summary query supports.
type Filters struct {
	Search               string           `json:"search,omitempty"`
	ActivityStatus       []ActivityStatus `json:"activity_status,omitempty"`
	EngagementScoreRange *ScoreRange      `json:"engagement_score_range,omitempty"`
	OrganizationType     string           `json:"organization_type,omitempty"`
	FollowUpRequired     *bool            `json:"follow_up_required,omitempty"`
}

// IsEmpty reports whether no predicate is set.
func (f Filters) IsEmpty() bool {
	c := f.Canonical()
	return c.Search == "" && len(c.ActivityStatus) == 0 && c.EngagementScoreRange == nil &&
		c.OrganizationType == "" && c.FollowUpRequired == nil
}

// Canonical returns a copy with whitespace trimmed and the status set
// sorted and de-duplicated, so equal predicates compare equal.
func (f Filters) Canonical() Filters {
	out := Filters{
		Search:           strings.Join(strings.Fields(f.Search), " "),
		OrganizationType: strings.TrimSpace(f.OrganizationType),
	}

	if len(f.ActivityStatus) > 0 {
		seen := make(map[ActivityStatus]bool, len(f.ActivityStatus))
		for _, s := range f.ActivityStatus {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out.ActivityStatus = append(out.ActivityStatus, s)
		}
		sort.Slice(out.ActivityStatus, func(i, j int) bool {
			return out.ActivityStatus[i] < out.ActivityStatus[j]
		})
	}

	if f.EngagementScoreRange != nil {
		r := *f.EngagementScoreRange
		if r.Min > r.Max {
			r.Min, r.Max = r.Max, r.Min
		}
		out.EngagementScoreRange = &r
	}

	if f.FollowUpRequired != nil {
		v := *f.FollowUpRequired
		out.FollowUpRequired = &v
	}

	return out
}

// Sort orders summary rows by one field.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// DefaultSort is the ordering used when none is requested.
func DefaultSort() Sort {
	return Sort{Field: DefaultSortField, Order: SortDesc}
}

// Canonical fills in defaults and falls back to the default field when the
// requested one is not sortable.
func (s Sort) Canonical() Sort {
	field := strings.TrimSpace(s.Field)
	if !SortableFields[field] {
		field = DefaultSortField
	}
	order := SortOrder(strings.ToLower(string(s.Order)))
	if order != SortAsc && order != SortDesc {
		order = SortDesc
	}
	return Sort{Field: field, Order: order}
}

// Pagination selects one page of results; Page is 1-based.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Canonical clamps page and limit into their valid ranges.
func (p Pagination) Canonical() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the zero-based index of the first row on the page.
func (p Pagination) Offset() int {
	c := p.Canonical()
	return (c.Page - 1) * c.Limit
}

// Query is the full descriptor of one summary request.
type Query struct {
	Filters    Filters    `json:"filters"`
	Sort       Sort       `json:"sort"`
	Pagination Pagination `json:"pagination"`
}

// Canonical normalizes every part of the query.
func (q Query) Canonical() Query {
	return Query{
		Filters:    q.Filters.Canonical(),
		Sort:       q.Sort.Canonical(),
		Pagination: q.Pagination.Canonical(),
	}
}

// PageInfo describes where a page sits in the full result set.
type PageInfo struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPageInfo derives page metadata from a pagination request and total.
func NewPageInfo(p Pagination, total int) PageInfo {
	p = p.Canonical()
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{
		Page:        p.Page,
		Limit:       p.Limit,
		Total:       total,
		TotalPages:  pages,
		HasNext:     p.Page < pages,
		HasPrevious: p.Page > 1,
	}
}

// Page is one page of activity records.
type Page struct {
	Data       []ActivityRecord `json:"data"`
	Pagination PageInfo         `json:"pagination"`
}
