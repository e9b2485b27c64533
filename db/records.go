// ABOUTME: Insert operations for summary rows and dashboard enrichments
// ABOUTME: Used by the seed command and by tests that need fixed datasets
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmactivity/models"
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func CreateSummary(ctx context.Context, db Execer, r *models.ActivityRecord) error {
	if r.PrincipalID == "" {
		r.PrincipalID = uuid.New().String()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	r.Normalize()

	var categories any
	if r.ProductCategories != nil {
		raw, err := json.Marshal(r.ProductCategories)
		if err != nil {
			return err
		}
		categories = string(raw)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO principal_activity_summary (
			principal_id, principal_name, principal_status, organization_type, industry,
			organization_size, geographic_region, is_principal, is_distributor, is_active,
			contact_count, active_contacts, primary_contact_name, primary_contact_email,
			total_interactions, interactions_last_30_days, interactions_last_90_days,
			last_interaction_date, last_interaction_type, avg_interaction_rating,
			follow_ups_required, next_follow_up_date,
			total_opportunities, active_opportunities, won_opportunities, lost_opportunities,
			latest_opportunity_stage, avg_probability, highest_value_opportunity,
			product_count, product_categories, primary_product_category,
			lead_score, engagement_score, activity_status,
			created_at, updated_at, summary_generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.PrincipalID, r.PrincipalName, nullable(r.PrincipalStatus), nullable(r.OrganizationType), nullable(r.Industry),
		nullable(r.OrganizationSize), nullable(r.GeographicRegion), r.IsPrincipal, r.IsDistributor, r.IsActive,
		r.ContactCount, r.ActiveContacts, nullable(r.PrimaryContactName), nullable(r.PrimaryContactEmail),
		r.TotalInteractions, r.InteractionsLast30Days, r.InteractionsLast90Days,
		r.LastInteractionDate, nullable(r.LastInteractionType), r.AvgInteractionRating,
		r.FollowUpsRequired, r.NextFollowUpDate,
		r.TotalOpportunities, r.ActiveOpportunities, r.WonOpportunities, r.LostOpportunities,
		nullable(r.LatestOpportunityStage), r.AvgProbability, nullable(r.HighestValueOpportunity),
		r.ProductCount, categories, nullable(r.PrimaryProductCategory),
		r.LeadScore, r.EngagementScore, string(r.ActivityStatus),
		r.CreatedAt, r.UpdatedAt, r.SummaryGeneratedAt,
	)
	return err
}

func CreateDistributorRelationship(ctx context.Context, db Execer, rel *models.DistributorRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	if rel.DistributorID == "" {
		rel.DistributorID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO distributor_relationships (id, principal_id, distributor_id, distributor_name, relationship_status, started_at, total_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rel.ID, rel.PrincipalID, rel.DistributorID, rel.DistributorName, nullable(rel.RelationshipStatus), rel.StartedAt, rel.TotalVolume)
	return err
}

func CreateProductPerformance(ctx context.Context, db Execer, p *models.ProductPerformance) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO product_performance (id, principal_id, product_name, category, opportunity_count, won_count, total_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.PrincipalID, p.ProductName, nullable(p.Category), p.OpportunityCount, p.WonCount, p.TotalValue)
	return err
}

func CreateInteraction(ctx context.Context, db Execer, e *models.TimelineEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.InteractionDate.IsZero() {
		e.InteractionDate = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO interactions (id, principal_id, interaction_type, subject, contact_name, interaction_date, rating, follow_up_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.PrincipalID, e.InteractionType, nullable(e.Subject), nullable(e.ContactName), e.InteractionDate, e.Rating, e.FollowUpRequired)
	return err
}

func CreateOpportunity(ctx context.Context, db Execer, o *models.Opportunity) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.Stage == "" {
		o.Stage = "lead"
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO opportunities (id, name, principal_id, stage, probability, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, o.ID, o.Name, nullable(o.PrincipalID), o.Stage, o.Probability, o.CreatedAt)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
