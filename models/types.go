// ABOUTME: Data models for principal activity rollups and opportunity naming
// ABOUTME: Defines ActivityRecord, dashboard detail, analytics and naming structs
package models

import (
	"time"
)

// ActivityStatus classifies a principal's recent engagement level.
type ActivityStatus string

const (
	StatusActive     ActivityStatus = "ACTIVE"
	StatusModerate   ActivityStatus = "MODERATE"
	StatusLow        ActivityStatus = "LOW"
	StatusNoActivity ActivityStatus = "NO_ACTIVITY"
)

// ActivityStatuses lists every status in display order.
var ActivityStatuses = []ActivityStatus{StatusActive, StatusModerate, StatusLow, StatusNoActivity}

// Valid reports whether s is a known activity status.
func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusActive, StatusModerate, StatusLow, StatusNoActivity:
		return true
	}
	return false
}

// ActivityRecord is one denormalized row of the principal activity summary.
type ActivityRecord struct {
	PrincipalID      string `json:"principal_id"`
	PrincipalName    string `json:"principal_name"`
	PrincipalStatus  string `json:"principal_status,omitempty"`
	OrganizationType string `json:"organization_type,omitempty"`
	Industry         string `json:"industry,omitempty"`
	OrganizationSize string `json:"organization_size,omitempty"`
	GeographicRegion string `json:"geographic_region,omitempty"`

	IsPrincipal   bool `json:"is_principal"`
	IsDistributor bool `json:"is_distributor"`
	IsActive      bool `json:"is_active"`

	ContactCount        int    `json:"contact_count"`
	ActiveContacts      int    `json:"active_contacts"`
	PrimaryContactName  string `json:"primary_contact_name,omitempty"`
	PrimaryContactEmail string `json:"primary_contact_email,omitempty"`

	TotalInteractions      int        `json:"total_interactions"`
	InteractionsLast30Days int        `json:"interactions_last_30_days"`
	InteractionsLast90Days int        `json:"interactions_last_90_days"`
	LastInteractionDate    *time.Time `json:"last_interaction_date,omitempty"`
	LastInteractionType    string     `json:"last_interaction_type,omitempty"`
	AvgInteractionRating   float64    `json:"avg_interaction_rating"`
	FollowUpsRequired      int        `json:"follow_ups_required"`
	NextFollowUpDate       *time.Time `json:"next_follow_up_date,omitempty"`

	TotalOpportunities      int     `json:"total_opportunities"`
	ActiveOpportunities     int     `json:"active_opportunities"`
	WonOpportunities        int     `json:"won_opportunities"`
	LostOpportunities       int     `json:"lost_opportunities"`
	LatestOpportunityStage  string  `json:"latest_opportunity_stage,omitempty"`
	AvgProbability          float64 `json:"avg_probability"`
	HighestValueOpportunity string  `json:"highest_value_opportunity,omitempty"`

	ProductCount           int      `json:"product_count"`
	ProductCategories      []string `json:"product_categories,omitempty"`
	PrimaryProductCategory string   `json:"primary_product_category,omitempty"`

	LeadScore       float64        `json:"lead_score"`
	EngagementScore float64        `json:"engagement_score"`
	ActivityStatus  ActivityStatus `json:"activity_status"`

	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	SummaryGeneratedAt *time.Time `json:"summary_generated_at,omitempty"`
}

// Normalize applies the defaults every loaded record must carry.
func (r *ActivityRecord) Normalize() {
	if !r.ActivityStatus.Valid() {
		r.ActivityStatus = StatusNoActivity
	}
	if r.EngagementScore < 0 {
		r.EngagementScore = 0
	}
	if r.EngagementScore > 100 {
		r.EngagementScore = 100
	}
}

// RequiresFollowUp reports whether any interaction is awaiting a follow-up.
func (r *ActivityRecord) RequiresFollowUp() bool {
	return r.FollowUpsRequired > 0
}

// PrincipalUpdate is the closed set of fields a batch update may change.
// Nil fields are left untouched.
type PrincipalUpdate struct {
	PrincipalStatus  *string    `json:"principal_status,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
	OrganizationType *string    `json:"organization_type,omitempty"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u PrincipalUpdate) IsEmpty() bool {
	return u.PrincipalStatus == nil && u.IsActive == nil && u.OrganizationType == nil && u.NextFollowUpDate == nil
}

// Values returns the column/value pairs for the update.
func (u PrincipalUpdate) Values() map[string]any {
	values := make(map[string]any)
	if u.PrincipalStatus != nil {
		values["principal_status"] = *u.PrincipalStatus
	}
	if u.IsActive != nil {
		values["is_active"] = *u.IsActive
	}
	if u.OrganizationType != nil {
		values["organization_type"] = *u.OrganizationType
	}
	if u.NextFollowUpDate != nil {
		values["next_follow_up_date"] = *u.NextFollowUpDate
	}
	return values
}

// ApplyTo copies the update onto an in-memory record.
func (u PrincipalUpdate) ApplyTo(r *ActivityRecord) {
	if u.PrincipalStatus != nil {
		r.PrincipalStatus = *u.PrincipalStatus
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	if u.OrganizationType != nil {
		r.OrganizationType = *u.OrganizationType
	}
	if u.NextFollowUpDate != nil {
		next := *u.NextFollowUpDate
		r.NextFollowUpDate = &next
	}
}

// DistributorRelationship links a principal to a distributor.
type DistributorRelationship struct {
	ID                 string     `json:"id"`
	PrincipalID        string     `json:"principal_id"`
	DistributorID      string     `json:"distributor_id"`
	DistributorName    string     `json:"distributor_name"`
	RelationshipStatus string     `json:"relationship_status,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	TotalVolume        float64    `json:"total_volume"`
}

// ProductPerformance summarises one product line of a principal.
type ProductPerformance struct {
	ID               string  `json:"id"`
	PrincipalID      string  `json:"principal_id"`
	ProductName      string  `json:"product_name"`
	Category         string  `json:"category,omitempty"`
	OpportunityCount int     `json:"opportunity_count"`
	WonCount         int     `json:"won_count"`
	TotalValue       float64 `json:"total_value"`
}

// TimelineEntry is one interaction in a principal's recent timeline.
type TimelineEntry struct {
	ID               string    `json:"id"`
	PrincipalID      string    `json:"principal_id"`
	InteractionType  string    `json:"interaction_type"`
	Subject          string    `json:"subject,omitempty"`
	ContactName      string    `json:"contact_name,omitempty"`
	InteractionDate  time.Time `json:"interaction_date"`
	Rating           *int      `json:"rating,omitempty"`
	FollowUpRequired bool      `json:"follow_up_required"`
}

// DashboardDetail is a single principal with its enrichments.
// An enrichment that failed to load is empty, never nil.
type DashboardDetail struct {
	Summary                  ActivityRecord            `json:"summary"`
	DistributorRelationships []DistributorRelationship `json:"distributor_relationships"`
	ProductPerformance       []ProductPerformance      `json:"product_performance"`
	RecentTimeline           []TimelineEntry           `json:"recent_timeline"`
}

// Opportunity is the subset of an opportunity row used for name checks.
type Opportunity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PrincipalID string    `json:"principal_id,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	Probability int       `json:"probability"`
	CreatedAt   time.Time `json:"created_at"`
}
