// ABOUTME: Pure reduction of activity records into summary statistics
// ABOUTME: Counts, averages, region and engagement distributions, pipeline health
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/harperreed/crmactivity/models"
)

// EngagementBuckets are the fixed engagement score bands, inclusive.
var EngagementBuckets = []models.ScoreBucket{
	{Range: "0-20", Min: 0, Max: 20},
	{Range: "21-40", Min: 21, Max: 40},
	{Range: "41-60", Min: 41, Max: 60},
	{Range: "61-80", Min: 61, Max: 80},
	{Range: "81-100", Min: 81, Max: 100},
}

// Health status thresholds on the 0-100 health score.
const (
	FairThreshold      = 25.0
	GoodThreshold      = 50.0
	ExcellentThreshold = 75.0
)

// Calculate reduces records into an AnalyticsSummary stamped with now.
// An empty input yields zeros, never NaN.
func Calculate(records []models.ActivityRecord, now time.Time) models.AnalyticsSummary {
	summary := models.AnalyticsSummary{
		TotalPrincipals:        len(records),
		ActivityStatusCounts:   make(map[models.ActivityStatus]int, len(models.ActivityStatuses)),
		GeographicDistribution: []models.RegionCount{},
		EngagementDistribution: make([]models.ScoreBucket, len(EngagementBuckets)),
		LastCalculated:         now,
	}
	copy(summary.EngagementDistribution, EngagementBuckets)
	for _, s := range models.ActivityStatuses {
		summary.ActivityStatusCounts[s] = 0
	}

	var engagementSum, leadSum float64
	var active, won, lost int
	regions := make(map[string]int)

	for _, r := range records {
		status := r.ActivityStatus
		if !status.Valid() {
			status = models.StatusNoActivity
		}
		summary.ActivityStatusCounts[status]++
		if status == models.StatusActive {
			summary.ActivePrincipals++
		}

		engagementSum += r.EngagementScore
		leadSum += r.LeadScore
		summary.TotalInteractions += r.TotalInteractions
		summary.TotalOpportunities += r.TotalOpportunities
		active += r.ActiveOpportunities
		won += r.WonOpportunities
		lost += r.LostOpportunities

		if r.GeographicRegion != "" {
			regions[r.GeographicRegion]++
		}
		summary.EngagementDistribution[bucketIndex(r.EngagementScore)].Count++
	}

	summary.InactivePrincipals = summary.TotalPrincipals - summary.ActivePrincipals
	if n := len(records); n > 0 {
		summary.AvgEngagementScore = round2(engagementSum / float64(n))
		summary.AvgLeadScore = round2(leadSum / float64(n))
	}

	for region, count := range regions {
		summary.GeographicDistribution = append(summary.GeographicDistribution, models.RegionCount{Region: region, Count: count})
	}
	sort.Slice(summary.GeographicDistribution, func(i, j int) bool {
		a, b := summary.GeographicDistribution[i], summary.GeographicDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Region < b.Region
	})

	summary.PipelineHealth = PipelineHealth(summary.TotalOpportunities, active, won, lost)
	return summary
}

// PipelineHealth scores the share of open opportunities weighted by the
// win rate of closed ones.
func PipelineHealth(total, active, won, lost int) models.PipelineHealth {
	conversion := 0.0
	if closed := won + lost; closed > 0 {
		conversion = float64(won) / float64(closed)
	}
	score := float64(active) / math.Max(float64(total), 1) * conversion * 100
	score = math.Min(math.Max(score, 0), 100)

	return models.PipelineHealth{
		TotalOpportunities:  total,
		RecentOpportunities: active,
		AvgConversionRate:   round2(conversion),
		HealthScore:         round2(score),
		Status:              HealthStatus(score),
	}
}

// HealthStatus classifies a health score; it is monotonic in score.
func HealthStatus(score float64) string {
	switch {
	case score >= ExcellentThreshold:
		return models.HealthExcellent
	case score >= GoodThreshold:
		return models.HealthGood
	case score >= FairThreshold:
		return models.HealthFair
	default:
		return models.HealthPoor
	}
}

func bucketIndex(score float64) int {
	for i, b := range EngagementBuckets {
		if score <= b.Max {
			return i
		}
	}
	return len(EngagementBuckets) - 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
