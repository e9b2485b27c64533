// ABOUTME: Visualization CLI commands
// ABOUTME: Renders a principal's distributor network or the whole portfolio as DOT or SVG
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/crmactivity/models"
	"github.com/harperreed/crmactivity/viz"
)

// ActivityGraphCommand renders a principal graph, or the portfolio graph
// when --portfolio is set.
func ActivityGraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity graph", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Graph format (dot, svg)")
	portfolio := fs.Bool("portfolio", false, "Graph every principal grouped by activity status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	var graph string
	var err error
	if *portfolio {
		q := models.Query{Pagination: models.Pagination{Page: 1, Limit: models.MaxPageSize}}
		if err := st.FetchPrincipals(ctx, &q); err != nil {
			return fmt.Errorf("failed to load principals: %w", err)
		}
		graph, err = viz.PortfolioGraph(ctx, st.Principals(), viz.Format(*format))
	} else {
		if fs.NArg() < 1 {
			return fmt.Errorf("principal ID required (or --portfolio)")
		}
		detail, ferr := st.FetchDashboard(ctx, fs.Arg(0))
		if ferr != nil {
			return fmt.Errorf("failed to load dashboard: %w", ferr)
		}
		graph, err = viz.PrincipalGraph(ctx, detail, viz.Format(*format))
	}
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(graph), 0644)
	}

	_, _ = fmt.Fprintln(app.Out, graph)
	return nil
}
