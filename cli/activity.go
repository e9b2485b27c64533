// ABOUTME: Principal activity CLI commands
// ABOUTME: List, dashboard, analytics, export and batch update through the activity store
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/store"
	"github.com/harperreed/crmactivity/viz"
)

const dateLayout = "2006-01-02"

var statusColors = map[models.ActivityStatus]lipgloss.Color{
	models.StatusActive:     lipgloss.Color("10"),
	models.StatusModerate:   lipgloss.Color("11"),
	models.StatusLow:        lipgloss.Color("208"),
	models.StatusNoActivity: lipgloss.Color("240"),
}

// ActivityListCommand prints one page of principal activity.
func ActivityListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity list", flag.ContinueOnError)
	qf := addQueryFlags(fs, app.Config.PageSize)
	format := fs.String("format", "table", "Output format (table, json, csv)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := qf.query()
	if err != nil {
		return err
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if err := st.FetchPrincipals(context.Background(), &q); err != nil {
		return fmt.Errorf("failed to list principals: %w", err)
	}

	switch *format {
	case "table":
		printPrincipalTable(app.Out, st.Principals(), isTerminal(app.Out))
		info := st.Pagination()
		_, _ = fmt.Fprintf(app.Out, "\nPage %d of %d (%d principals)\n", info.Page, info.TotalPages, info.Total)
		return nil
	case "json":
		return writeIndentedJSON(app.Out, models.Page{Data: st.Principals(), Pagination: st.Pagination()})
	case "csv":
		return store.WriteRecords(app.Out, store.FormatCSV, st.Principals())
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", *format)
	}
}

func printPrincipalTable(out io.Writer, principals []models.ActivityRecord, color bool) {
	if len(principals) == 0 {
		_, _ = fmt.Fprintln(out, "No principals found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSCORE\tINTERACTIONS\tOPPS\tFOLLOW-UPS\tLAST CONTACT")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----\t------------\t----\t----------\t------------")

	for _, p := range principals {
		status := string(p.ActivityStatus)
		if color {
			status = lipgloss.NewStyle().Foreground(statusColors[p.ActivityStatus]).Render(status)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\t%d\t%d\t%s\n",
			p.PrincipalID, p.PrincipalName, status, p.EngagementScore,
			p.TotalInteractions, p.TotalOpportunities, p.FollowUpsRequired,
			formatDate(p.LastInteractionDate))
	}

	_ = w.Flush()
}

// ActivityDashboardCommand prints one principal with its enrichments.
func ActivityDashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity dashboard", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("principal ID required")
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	detail, err := st.FetchDashboard(context.Background(), fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	if *asJSON {
		return writeIndentedJSON(app.Out, detail)
	}

	p := detail.Summary
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Principal:\t%s (%s)\n", p.PrincipalName, p.PrincipalID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", p.ActivityStatus)
	_, _ = fmt.Fprintf(w, "Engagement:\t%.1f\n", p.EngagementScore)
	_, _ = fmt.Fprintf(w, "Primary contact:\t%s\n", p.PrimaryContactName)
	_, _ = fmt.Fprintf(w, "Interactions:\t%d (%d in 30 days)\n", p.TotalInteractions, p.InteractionsLast30Days)
	_, _ = fmt.Fprintf(w, "Opportunities:\t%d (%d won, %d lost)\n", p.TotalOpportunities, p.WonOpportunities, p.LostOpportunities)
	_, _ = fmt.Fprintf(w, "Next follow-up:\t%s\n", formatDate(p.NextFollowUpDate))
	_ = w.Flush()

	_, _ = fmt.Fprintln(app.Out, "\nDISTRIBUTORS")
	for _, rel := range detail.DistributorRelationships {
		_, _ = fmt.Fprintf(app.Out, "  • %s (%s) $%.0f\n", rel.DistributorName, rel.RelationshipStatus, rel.TotalVolume)
	}
	_, _ = fmt.Fprintln(app.Out, "\nPRODUCTS")
	for _, prod := range detail.ProductPerformance {
		_, _ = fmt.Fprintf(app.Out, "  • %s: %d opportunities, %d won, $%.0f\n", prod.ProductName, prod.OpportunityCount, prod.WonCount, prod.TotalValue)
	}
	_, _ = fmt.Fprintln(app.Out, "\nRECENT ACTIVITY")
	for _, entry := range detail.RecentTimeline {
		_, _ = fmt.Fprintf(app.Out, "  • [%s] %s %s\n", entry.InteractionDate.Format(dateLayout), entry.InteractionType, entry.Subject)
	}
	return nil
}

// ActivityAnalyticsCommand prints the analytics summary for matching principals.
func ActivityAnalyticsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity analytics", flag.ContinueOnError)
	qf := addQueryFlags(fs, models.MaxPageSize)
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := qf.query()
	if err != nil {
		return err
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if err := st.FetchPrincipals(context.Background(), &q); err != nil {
		return fmt.Errorf("failed to load principals: %w", err)
	}

	summary := st.CalculateAnalytics(true)
	if *asJSON {
		return writeIndentedJSON(app.Out, summary)
	}
	_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(summary))
	return nil
}

// ActivityExportCommand writes matching principals as CSV, JSON or XLSX.
func ActivityExportCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity export", flag.ContinueOnError)
	qf := addQueryFlags(fs, models.MaxPageSize)
	format := fs.String("format", "csv", "Export format (csv, json, xlsx)")
	output := fs.String("output", "", "Output file (default: stdout)")
	ids := fs.String("ids", "", "Only export these principal IDs, comma separated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := store.ParseFormat(*format)
	if err != nil {
		return err
	}
	if f == store.FormatXLSX && *output == "" && isTerminal(app.Out) {
		return fmt.Errorf("refusing to write xlsx to a terminal; use --output")
	}

	q, err := qf.query()
	if err != nil {
		return err
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if err := st.FetchPrincipals(context.Background(), &q); err != nil {
		return fmt.Errorf("failed to load principals: %w", err)
	}
	if *ids != "" {
		st.SelectPrincipals(splitList(*ids))
	}

	if *output == "" {
		return st.Export(app.Out, f)
	}

	file, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *output, err)
	}
	if err := st.Export(file, f); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(app.Out, "Exported %d principals to %s\n", len(st.ExportRecords()), *output)
	return nil
}

// ActivityUpdateCommand applies one update to every listed principal.
func ActivityUpdateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity update", flag.ContinueOnError)
	status := fs.String("status", "", "New principal status")
	active := fs.String("active", "", "Mark active (true) or inactive (false)")
	orgType := fs.String("type", "", "New organization type")
	followUp := fs.String("follow-up-date", "", "Next follow-up date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids := fs.Args()
	if len(ids) == 1 && strings.Contains(ids[0], ",") {
		ids = splitList(ids[0])
	}
	if len(ids) == 0 {
		return fmt.Errorf("at least one principal ID required")
	}

	var update models.PrincipalUpdate
	if *status != "" {
		update.PrincipalStatus = status
	}
	if *active != "" {
		v, err := strconv.ParseBool(*active)
		if err != nil {
			return fmt.Errorf("invalid --active value %q: %w", *active, err)
		}
		update.IsActive = &v
	}
	if *orgType != "" {
		update.OrganizationType = orgType
	}
	if *followUp != "" {
		d, err := time.Parse(dateLayout, *followUp)
		if err != nil {
			return fmt.Errorf("invalid --follow-up-date: %w", err)
		}
		update.NextFollowUpDate = &d
	}
	if update.IsEmpty() {
		return fmt.Errorf("nothing to update; pass --status, --active, --type or --follow-up-date")
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	st.SetBatchMode(true, app.Config.MaxSelections)
	st.SelectPrincipals(ids)
	if st.IsMaxSelectionsReached() && len(st.SelectedIDs()) < len(ids) {
		return fmt.Errorf("too many principals: at most %d per batch", app.Config.MaxSelections)
	}

	n, err := st.BatchUpdate(context.Background(), update)
	if err != nil {
		return fmt.Errorf("batch update failed: %w", err)
	}

	_, _ = fmt.Fprintf(app.Out, "Updated %d principals\n", n)
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
