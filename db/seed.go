// ABOUTME: Demo dataset for the principal activity backend
// ABOUTME: Inserts principals with distributors, products, interactions and opportunities
package db

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmactivity/models"
)

var seedPrincipals = []struct {
	name     string
	orgType  string
	industry string
	region   string
	contact  string
}{
	{"TechFlow Solutions", "principal", "Technology", "West", "Jennifer Martinez"},
	{"Harvest Valley Foods", "principal", "Food & Beverage", "Midwest", "Marcus Chen"},
	{"Blue Ridge Provisions", "principal", "Food & Beverage", "Southeast", "Alicia Ford"},
	{"Summit Dairy Co-op", "principal", "Dairy", "Northeast", "Tom Becker"},
	{"Coastal Catch Seafood", "principal", "Seafood", "West", "Priya Nair"},
	{"Prairie Grain Mills", "principal", "Baking", "Midwest", "Owen Gallagher"},
	{"Lone Star Smokehouse", "principal", "Meat & Poultry", "Southwest", "Rosa Delgado"},
	{"Northwind Beverages", "distributor", "Beverage", "Northeast", "Hannah Kim"},
	{"Golden Gate Produce", "distributor", "Produce", "West", "Luis Ortega"},
	{"Great Lakes Supply", "distributor", "Foodservice", "Midwest", "Dana Whitfield"},
	{"Magnolia Sweets", "principal", "Confectionery", "Southeast", ""},
	{"Red Rock Salsa Co", "principal", "Specialty", "Southwest", "Carlos Rivera"},
}

var seedCategories = []string{"Dairy", "Bakery", "Frozen", "Beverages", "Snacks", "Produce", "Protein"}
var seedStages = []string{"lead", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}
var seedInteractionTypes = []string{"meeting", "call", "email", "demo", "site_visit", "trade_show"}
var seedDistributors = []string{"Sysco Central", "US Foods East", "Performance Foodservice", "Gordon Food Service", "Shamrock Foods", "Ben E. Keith"}

// Seed inserts a demo dataset and returns the number of principals. The
// rng seed makes the data reproducible.
func Seed(ctx context.Context, db *sql.DB, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range seedPrincipals {
		interactions := rng.Intn(40)
		last30 := min(interactions, rng.Intn(8))
		last90 := min(interactions, last30+rng.Intn(12))
		won := rng.Intn(5)
		lost := rng.Intn(4)
		active := rng.Intn(6)
		followUps := rng.Intn(3)
		engagement := float64(min(100, last30*9+last90*2+active*4))

		categories := []string{pick(rng, seedCategories), pick(rng, seedCategories)}
		if categories[0] == categories[1] {
			categories = categories[:1]
		}

		record := &models.ActivityRecord{
			PrincipalName:           p.name,
			PrincipalStatus:         "active",
			OrganizationType:        p.orgType,
			Industry:                p.industry,
			OrganizationSize:        pick(rng, []string{"small", "medium", "large"}),
			GeographicRegion:        p.region,
			IsPrincipal:             p.orgType == "principal",
			IsDistributor:           p.orgType == "distributor",
			IsActive:                true,
			ContactCount:            1 + rng.Intn(6),
			ActiveContacts:          1 + rng.Intn(3),
			PrimaryContactName:      p.contact,
			PrimaryContactEmail:     emailFor(p.contact),
			TotalInteractions:       interactions,
			InteractionsLast30Days:  last30,
			InteractionsLast90Days:  last90,
			LastInteractionType:     pick(rng, seedInteractionTypes),
			AvgInteractionRating:    1 + rng.Float64()*4,
			FollowUpsRequired:       followUps,
			TotalOpportunities:      won + lost + active,
			ActiveOpportunities:     active,
			WonOpportunities:        won,
			LostOpportunities:       lost,
			LatestOpportunityStage:  pick(rng, seedStages),
			AvgProbability:          float64(rng.Intn(100)),
			HighestValueOpportunity: fmt.Sprintf("$%dK", 5+rng.Intn(200)),
			ProductCount:            len(categories),
			ProductCategories:       categories,
			PrimaryProductCategory:  categories[0],
			LeadScore:               float64(rng.Intn(100)),
			EngagementScore:         engagement,
			ActivityStatus:          statusFor(engagement, last90),
			CreatedAt:               now.AddDate(0, -rng.Intn(24), 0),
			UpdatedAt:               now,
			SummaryGeneratedAt:      &now,
		}
		if interactions > 0 {
			t := now.AddDate(0, 0, -rng.Intn(120))
			record.LastInteractionDate = &t
		}
		if followUps > 0 {
			t := now.AddDate(0, 0, rng.Intn(21)-7)
			record.NextFollowUpDate = &t
		}

		if err := CreateSummary(ctx, tx, record); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", p.name, err)
		}
		if err := seedEnrichments(ctx, tx, rng, record, now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(seedPrincipals), nil
}

func seedEnrichments(ctx context.Context, tx *sql.Tx, rng *rand.Rand, record *models.ActivityRecord, now time.Time) error {
	for i, n := 0, 1+rng.Intn(3); i < n; i++ {
		started := now.AddDate(0, -rng.Intn(36), 0)
		rel := &models.DistributorRelationship{
			PrincipalID:        record.PrincipalID,
			DistributorName:    pick(rng, seedDistributors),
			RelationshipStatus: "active",
			StartedAt:          &started,
			TotalVolume:        float64(rng.Intn(500000)),
		}
		if err := CreateDistributorRelationship(ctx, tx, rel); err != nil {
			return fmt.Errorf("failed to insert distributor relationship: %w", err)
		}
	}

	for i, n := 0, 1+rng.Intn(4); i < n; i++ {
		category := pick(rng, seedCategories)
		opps := rng.Intn(10)
		perf := &models.ProductPerformance{
			PrincipalID:      record.PrincipalID,
			ProductName:      fmt.Sprintf("%s Line %d", category, i+1),
			Category:         category,
			OpportunityCount: opps,
			WonCount:         rng.Intn(opps + 1),
			TotalValue:       float64(rng.Intn(250000)),
		}
		if err := CreateProductPerformance(ctx, tx, perf); err != nil {
			return fmt.Errorf("failed to insert product performance: %w", err)
		}
	}

	for i, n := 0, rng.Intn(8); i < n; i++ {
		entry := &models.TimelineEntry{
			PrincipalID:      record.PrincipalID,
			InteractionType:  pick(rng, seedInteractionTypes),
			Subject:          pick(rng, []string{"Quarterly review", "Menu planning", "Pricing follow-up", "Sample delivery"}),
			ContactName:      record.PrimaryContactName,
			InteractionDate:  now.AddDate(0, 0, -rng.Intn(90)),
			FollowUpRequired: rng.Intn(4) == 0,
		}
		if rng.Intn(3) > 0 {
			rating := 1 + rng.Intn(5)
			entry.Rating = &rating
		}
		if err := CreateInteraction(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to insert interaction: %w", err)
		}
	}

	opp := &models.Opportunity{
		Name:        fmt.Sprintf("%s - %s - %s", record.PrincipalName, record.PrincipalName, now.Format("January 2006")),
		PrincipalID: record.PrincipalID,
		Stage:       pick(rng, seedStages),
		Probability: rng.Intn(100),
		CreatedAt:   now,
	}
	if err := CreateOpportunity(ctx, tx, opp); err != nil {
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}
	return nil
}

func statusFor(engagement float64, last90 int) models.ActivityStatus {
	switch {
	case last90 == 0:
		return models.StatusNoActivity
	case engagement >= 60:
		return models.StatusActive
	case engagement >= 30:
		return models.StatusModerate
	default:
		return models.StatusLow
	}
}

func emailFor(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("%s@example.com", uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()[:8])
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}
