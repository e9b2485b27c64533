// ABOUTME: Derived analytics and opportunity naming value types
// ABOUTME: AnalyticsSummary is computed, never persisted
package models

import "time"

// Pipeline health classifications, ordered worst to best.
const (
	HealthPoor      = "poor"
	HealthFair      = "fair"
	HealthGood      = "good"
	HealthExcellent = "excellent"
)

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

type ScoreBucket struct {
	Range string  `json:"range"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type PipelineHealth struct {
	TotalOpportunities  int     `json:"totalOpportunities"`
	RecentOpportunities int     `json:"recentOpportunities"`
	AvgConversionRate   float64 `json:"avgConversionRate"`
	HealthScore         float64 `json:"healthScore"`
	Status              string  `json:"status"`
}

// AnalyticsSummary is the rollup of a set of activity records.
type AnalyticsSummary struct {
	TotalPrincipals        int                    `json:"total_principals"`
	ActivePrincipals       int                    `json:"active_principals"`
	InactivePrincipals     int                    `json:"inactive_principals"`
	AvgEngagementScore     float64                `json:"avg_engagement_score"`
	AvgLeadScore           float64                `json:"avg_lead_score"`
	TotalInteractions      int                    `json:"total_interactions"`
	TotalOpportunities     int                    `json:"total_opportunities"`
	ActivityStatusCounts   map[ActivityStatus]int `json:"activity_status_counts"`
	GeographicDistribution []RegionCount          `json:"geographic_distribution"`
	EngagementDistribution []ScoreBucket          `json:"engagement_distribution"`
	PipelineHealth         PipelineHealth         `json:"pipeline_health"`
	LastCalculated         time.Time              `json:"last_calculated"`
}

// NameGenerationOptions are the inputs to opportunity name generation.
// Date accepts RFC 3339 or YYYY-MM-DD; anything else means "now".
type NameGenerationOptions struct {
	OrganizationName string `json:"organization_name"`
	PrincipalName    string `json:"principal_name"`
	Context          string `json:"context,omitempty"`
	CustomContext    string `json:"custom_context,omitempty"`
	Date             string `json:"date,omitempty"`
}

// PrincipalRef identifies a principal for batch name previews.
type PrincipalRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NamePreview is a dry-run generated name for one principal.
type NamePreview struct {
	PrincipalID   string `json:"principal_id"`
	PrincipalName string `json:"principal_name"`
	GeneratedName string `json:"generated_name"`
	NameTemplate  string `json:"name_template"`
}

// ParsedName holds the components recovered from a generated name.
type ParsedName struct {
	Organization string    `json:"organization"`
	Principal    string    `json:"principal"`
	Context      string    `json:"context"`
	Month        string    `json:"month"`
	Year         string    `json:"year"`
	Date         time.Time `json:"date"`
}
