// ABOUTME: Flag helpers shared by the activity subcommands
// ABOUTME: Turns filter, sort and page flags into a query descriptor
package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
)

type queryFlags struct {
	search    *string
	status    *string
	minScore  *float64
	maxScore  *float64
	orgType   *string
	followUp  *string
	sortField *string
	sortOrder *string
	page      *int
	limit     *int
}

func addQueryFlags(fs *flag.FlagSet, defaultLimit int) *queryFlags {
	return &queryFlags{
		search:    fs.String("search", "", "Search principal or primary contact name"),
		status:    fs.String("status", "", "Activity statuses, comma separated (ACTIVE,MODERATE,LOW,NO_ACTIVITY)"),
		minScore:  fs.Float64("min-score", -1, "Minimum engagement score"),
		maxScore:  fs.Float64("max-score", -1, "Maximum engagement score"),
		orgType:   fs.String("type", "", "Organization type"),
		followUp:  fs.String("follow-up", "", "Only principals with (true) or without (false) pending follow-ups"),
		sortField: fs.String("sort", models.DefaultSortField, "Sort field"),
		sortOrder: fs.String("order", string(models.SortDesc), "Sort order (asc/desc)"),
		page:      fs.Int("page", 1, "Page number"),
		limit:     fs.Int("limit", defaultLimit, "Results per page"),
	}
}

func (f *queryFlags) query() (models.Query, error) {
	var filters models.Filters
	filters.Search = *f.search
	filters.OrganizationType = *f.orgType

	if *f.status != "" {
		for _, part := range strings.Split(*f.status, ",") {
			st := models.ActivityStatus(strings.ToUpper(strings.TrimSpace(part)))
			if st == "" {
				continue
			}
			if !st.Valid() {
				return models.Query{}, fmt.Errorf("invalid activity status %q", part)
			}
			filters.ActivityStatus = append(filters.ActivityStatus, st)
		}
	}

	if *f.minScore >= 0 || *f.maxScore >= 0 {
		r := models.ScoreRange{Min: 0, Max: 100}
		if *f.minScore >= 0 {
			r.Min = *f.minScore
		}
		if *f.maxScore >= 0 {
			r.Max = *f.maxScore
		}
		filters.EngagementScoreRange = &r
	}

	switch strings.ToLower(*f.followUp) {
	case "":
	case "true", "yes":
		v := true
		filters.FollowUpRequired = &v
	case "false", "no":
		v := false
		filters.FollowUpRequired = &v
	default:
		return models.Query{}, fmt.Errorf("invalid follow-up value %q (want true or false)", *f.followUp)
	}

	if *f.sortField != "" && !models.SortableFields[*f.sortField] {
		return models.Query{}, fmt.Errorf("cannot sort by %q", *f.sortField)
	}

	return models.Query{
		Filters:    filters,
		Sort:       models.Sort{Field: *f.sortField, Order: models.SortOrder(*f.sortOrder)},
		Pagination: models.Pagination{Page: *f.page, Limit: *f.limit},
	}.Canonical(), nil
}

type nameFlags struct {
	org       *string
	principal *string
	context   *string
	custom    *string
	date      *string
}

func addNameFlags(fs *flag.FlagSet) *nameFlags {
	return &nameFlags{
		org:       fs.String("org", "", "Organization (customer) name"),
		principal: fs.String("principal", "", "Principal name"),
		context:   fs.String("context", "", "Opportunity context (e.g. Q2 Promo)"),
		custom:    fs.String("custom", "", "Custom context, used instead of --context"),
		date:      fs.String("date", "", "Date (YYYY-MM-DD); defaults to today"),
	}
}

func (f *nameFlags) options() models.NameGenerationOptions {
	return models.NameGenerationOptions{
		OrganizationName: *f.org,
		PrincipalName:    *f.principal,
		Context:          *f.context,
		CustomContext:    *f.custom,
		Date:             *f.date,
	}
}
