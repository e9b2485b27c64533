// ABOUTME: Database schema for the principal activity backend
// ABOUTME: Summary rollup table plus dashboard enrichment and opportunity tables
package db

import (
	"database/sql"

	"github.com/harperreed/crmactivity/models"
)

// Collection names exposed through the query source.
const (
	TableActivitySummary          = models.CollectionActivitySummary
	TableDistributorRelationships = models.CollectionDistributorRelationships
	TableProductPerformance       = models.CollectionProductPerformance
	TableInteractions             = models.CollectionInteractions
	TableOpportunities            = models.CollectionOpportunities
)

const schema = `
CREATE TABLE IF NOT EXISTS principal_activity_summary (
	principal_id TEXT PRIMARY KEY,
	principal_name TEXT NOT NULL,
	principal_status TEXT,
	organization_type TEXT,
	industry TEXT,
	organization_size TEXT,
	geographic_region TEXT,
	is_principal BOOLEAN NOT NULL DEFAULT 1,
	is_distributor BOOLEAN NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	contact_count INTEGER NOT NULL DEFAULT 0,
	active_contacts INTEGER NOT NULL DEFAULT 0,
	primary_contact_name TEXT,
	primary_contact_email TEXT,
	total_interactions INTEGER NOT NULL DEFAULT 0,
	interactions_last_30_days INTEGER NOT NULL DEFAULT 0,
	interactions_last_90_days INTEGER NOT NULL DEFAULT 0,
	last_interaction_date DATETIME,
	last_interaction_type TEXT,
	avg_interaction_rating REAL NOT NULL DEFAULT 0,
	follow_ups_required INTEGER NOT NULL DEFAULT 0,
	next_follow_up_date DATETIME,
	total_opportunities INTEGER NOT NULL DEFAULT 0,
	active_opportunities INTEGER NOT NULL DEFAULT 0,
	won_opportunities INTEGER NOT NULL DEFAULT 0,
	lost_opportunities INTEGER NOT NULL DEFAULT 0,
	latest_opportunity_stage TEXT,
	avg_probability REAL NOT NULL DEFAULT 0,
	highest_value_opportunity TEXT,
	product_count INTEGER NOT NULL DEFAULT 0,
	product_categories JSON,
	primary_product_category TEXT,
	lead_score REAL NOT NULL DEFAULT 0,
	engagement_score REAL NOT NULL DEFAULT 0 CHECK(engagement_score BETWEEN 0 AND 100),
	activity_status TEXT NOT NULL DEFAULT 'NO_ACTIVITY' CHECK(activity_status IN ('ACTIVE', 'MODERATE', 'LOW', 'NO_ACTIVITY')),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	summary_generated_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_summary_engagement ON principal_activity_summary(engagement_score DESC);
CREATE INDEX IF NOT EXISTS idx_summary_status ON principal_activity_summary(activity_status);
CREATE INDEX IF NOT EXISTS idx_summary_name ON principal_activity_summary(principal_name);

CREATE TABLE IF NOT EXISTS distributor_relationships (
	id TEXT PRIMARY KEY,
	principal_id TEXT NOT NULL,
	distributor_id TEXT NOT NULL,
	distributor_name TEXT NOT NULL,
	relationship_status TEXT,
	started_at DATETIME,
	total_volume REAL NOT NULL DEFAULT 0,
	FOREIGN KEY (principal_id) REFERENCES principal_activity_summary(principal_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_distributor_relationships_principal ON distributor_relationships(principal_id);

CREATE TABLE IF NOT EXISTS product_performance (
	id TEXT PRIMARY KEY,
	principal_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	category TEXT,
	opportunity_count INTEGER NOT NULL DEFAULT 0,
	won_count INTEGER NOT NULL DEFAULT 0,
	total_value REAL NOT NULL DEFAULT 0,
	FOREIGN KEY (principal_id) REFERENCES principal_activity_summary(principal_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_product_performance_principal ON product_performance(principal_id);

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	principal_id TEXT NOT NULL,
	interaction_type TEXT NOT NULL CHECK(interaction_type IN ('meeting', 'call', 'email', 'demo', 'site_visit', 'trade_show')),
	subject TEXT,
	contact_name TEXT,
	interaction_date DATETIME NOT NULL,
	rating INTEGER CHECK(rating BETWEEN 1 AND 5),
	follow_up_required BOOLEAN NOT NULL DEFAULT 0,
	FOREIGN KEY (principal_id) REFERENCES principal_activity_summary(principal_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interactions_principal_date ON interactions(principal_id, interaction_date DESC);

CREATE TABLE IF NOT EXISTS opportunities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	principal_id TEXT,
	stage TEXT NOT NULL DEFAULT 'lead',
	probability INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opportunities_name ON opportunities(name);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
