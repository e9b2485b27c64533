// ABOUTME: Decodes activity queries from URL query parameters
// ABOUTME: Shared by the HTML pages and the JSON API
package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/harperreed/crmactivity/models"
)

// ParseQuery reads q, status, min_score, max_score, organization_type,
// follow_up, sort, order, page and limit. Unknown parameters are ignored.
func ParseQuery(values url.Values) (models.Query, error) {
	var q models.Query
	q.Filters.Search = values.Get("q")
	q.Filters.OrganizationType = values.Get("organization_type")

	for _, raw := range values["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			status := models.ActivityStatus(strings.ToUpper(s))
			if !status.Valid() {
				return models.Query{}, fmt.Errorf("invalid status: %s", s)
			}
			q.Filters.ActivityStatus = append(q.Filters.ActivityStatus, status)
		}
	}

	minScore, hasMin, err := floatParam(values, "min_score")
	if err != nil {
		return models.Query{}, err
	}
	maxScore, hasMax, err := floatParam(values, "max_score")
	if err != nil {
		return models.Query{}, err
	}
	if hasMin || hasMax {
		r := models.ScoreRange{Min: 0, Max: 100}
		if hasMin {
			r.Min = minScore
		}
		if hasMax {
			r.Max = maxScore
		}
		q.Filters.EngagementScoreRange = &r
	}

	if raw := values.Get("follow_up"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return models.Query{}, fmt.Errorf("invalid follow_up: %w", err)
		}
		q.Filters.FollowUpRequired = &v
	}

	q.Sort = models.Sort{Field: values.Get("sort"), Order: models.SortOrder(values.Get("order"))}

	if q.Pagination.Page, err = intParam(values, "page"); err != nil {
		return models.Query{}, err
	}
	if q.Pagination.Limit, err = intParam(values, "limit"); err != nil {
		return models.Query{}, err
	}
	return q.Canonical(), nil
}

// Encode writes q back into URL parameters, omitting defaults.
func Encode(q models.Query) url.Values {
	values := url.Values{}
	if q.Filters.Search != "" {
		values.Set("q", q.Filters.Search)
	}
	for _, s := range q.Filters.ActivityStatus {
		values.Add("status", string(s))
	}
	if r := q.Filters.EngagementScoreRange; r != nil {
		values.Set("min_score", strconv.FormatFloat(r.Min, 'f', -1, 64))
		values.Set("max_score", strconv.FormatFloat(r.Max, 'f', -1, 64))
	}
	if q.Filters.OrganizationType != "" {
		values.Set("organization_type", q.Filters.OrganizationType)
	}
	if q.Filters.FollowUpRequired != nil {
		values.Set("follow_up", strconv.FormatBool(*q.Filters.FollowUpRequired))
	}
	if q.Sort != models.DefaultSort() {
		values.Set("sort", q.Sort.Field)
		values.Set("order", string(q.Sort.Order))
	}
	if q.Pagination.Page > 1 {
		values.Set("page", strconv.Itoa(q.Pagination.Page))
	}
	if q.Pagination.Limit != models.DefaultPageSize && q.Pagination.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Pagination.Limit))
	}
	return values
}

func floatParam(values url.Values, name string) (float64, bool, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, true, nil
}

func intParam(values url.Values, name string) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
