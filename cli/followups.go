// ABOUTME: Follow-up listing for principals with pending interactions
// ABOUTME: Prints the store's follow-up grouping ordered by due date
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/crmactivity/models"
)

// ActivityFollowUpsCommand lists principals with pending follow-ups.
func ActivityFollowUpsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity followups", flag.ContinueOnError)
	overdueOnly := fs.Bool("overdue-only", false, "Show only follow-ups already due")
	limit := fs.Int("limit", app.Config.PageSize, "Maximum number of principals to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pending := true
	q := models.Query{
		Filters:    models.Filters{FollowUpRequired: &pending},
		Sort:       models.Sort{Field: "next_follow_up_date", Order: models.SortAsc},
		Pagination: models.Pagination{Page: 1, Limit: *limit},
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if err := st.FetchPrincipals(context.Background(), &q); err != nil {
		return fmt.Errorf("failed to get follow-up list: %w", err)
	}

	records := st.RequiringFollowUp()
	if *overdueOnly {
		now := time.Now()
		var due []models.ActivityRecord
		for _, r := range records {
			if r.NextFollowUpDate != nil && !r.NextFollowUpDate.After(now) {
				due = append(due, r)
			}
		}
		records = due
	}

	printFollowUps(app, records)
	return nil
}

func printFollowUps(app *App, records []models.ActivityRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(app.Out, "\nNo follow-ups pending")
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nPRINCIPAL\tPENDING\tDUE\tSTATUS")
	_, _ = fmt.Fprintln(w, "---------\t-------\t---\t------")

	for _, r := range records {
		indicator := "🟢"
		if r.NextFollowUpDate != nil && r.NextFollowUpDate.Before(now) {
			indicator = "🔴"
		} else if r.NextFollowUpDate != nil && r.NextFollowUpDate.Before(now.AddDate(0, 0, 3)) {
			indicator = "🟡"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%d\t%s\t%s\n",
			indicator, r.PrincipalName, r.FollowUpsRequired, formatDate(r.NextFollowUpDate), r.ActivityStatus)
	}

	_ = w.Flush()
}
