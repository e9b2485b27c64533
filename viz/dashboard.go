// ABOUTME: Terminal rendering of activity analytics
// ABOUTME: Draws status counts, engagement buckets and pipeline health as text bars
package viz

import (
	"fmt"
	"strings"

	"github.com/harperreed/crmactivity/models"
)

const barWidth = 10

func RenderDashboard(summary models.AnalyticsSummary) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  PRINCIPAL ACTIVITY DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d principals (%d active, %d inactive)\n",
		summary.TotalPrincipals, summary.ActivePrincipals, summary.InactivePrincipals))
	out.WriteString(fmt.Sprintf("  avg engagement %.2f  avg lead score %.2f\n", summary.AvgEngagementScore, summary.AvgLeadScore))
	out.WriteString(fmt.Sprintf("  %d interactions  %d opportunities\n\n", summary.TotalInteractions, summary.TotalOpportunities))

	out.WriteString("ACTIVITY STATUS\n")
	maxStatus := 0
	for _, n := range summary.ActivityStatusCounts {
		maxStatus = max(maxStatus, n)
	}
	for _, st := range models.ActivityStatuses {
		n := summary.ActivityStatusCounts[st]
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", st, bar(n, maxStatus), n))
	}
	out.WriteString("\n")

	out.WriteString("ENGAGEMENT\n")
	maxBucket := 0
	for _, b := range summary.EngagementDistribution {
		maxBucket = max(maxBucket, b.Count)
	}
	for _, b := range summary.EngagementDistribution {
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", b.Range, bar(b.Count, maxBucket), b.Count))
	}
	out.WriteString("\n")

	if len(summary.GeographicDistribution) > 0 {
		out.WriteString("REGIONS\n")
		for _, r := range summary.GeographicDistribution {
			out.WriteString(fmt.Sprintf("  %-13s %2d\n", r.Region, r.Count))
		}
		out.WriteString("\n")
	}

	health := summary.PipelineHealth
	out.WriteString("PIPELINE HEALTH\n")
	out.WriteString(fmt.Sprintf("  %s  %.2f (%s)\n", bar(int(health.HealthScore), 100), health.HealthScore, health.Status))
	out.WriteString(fmt.Sprintf("  %d opportunities, %d active, %.0f%% won\n",
		health.TotalOpportunities, health.RecentOpportunities, health.AvgConversionRate*100))

	return out.String()
}

// bar scales n against total into a fixed-width block bar.
func bar(n, total int) string {
	if total <= 0 {
		total = 1
	}
	length := min(max(n*barWidth/total, 0), barWidth)
	return strings.Repeat("█", length) + strings.Repeat("░", barWidth-length)
}
