// ABOUTME: Demo data subcommand
// ABOUTME: Fills the database with reproducible principals, distributors and interactions
package cli

import (
	"context"
	"flag"
	"fmt"
)

// SeedCommand inserts the demo dataset.
func SeedCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	seed := fs.Int64("seed", 42, "Random seed for reproducible data")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := app.Seed(context.Background(), *seed)
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	_, _ = fmt.Fprintf(app.Out, "Seeded %d principals into %s\n", n, app.Config.DatabasePath)
	return nil
}
