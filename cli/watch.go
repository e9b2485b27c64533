// ABOUTME: Live views over the activity store
// ABOUTME: The watch loop reprints the dashboard on each refresh; tui starts the terminal UI
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/crmactivity/tui"
	"github.com/harperreed/crmactivity/viz"
)

// ActivityWatchCommand refetches matching principals on every refresh
// interval and prints the analytics dashboard until interrupted.
func ActivityWatchCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity watch", flag.ContinueOnError)
	qf := addQueryFlags(fs, app.Config.PageSize)
	interval := fs.Duration("interval", app.Config.RefreshInterval.Std(), "Refresh interval")
	count := fs.Int("count", 0, "Stop after this many refreshes (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := qf.query()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if err := st.ConfigureRealTimeUpdates(true, *interval); err != nil {
		return fmt.Errorf("failed to start refresh loop: %w", err)
	}

	if err := st.FetchPrincipals(ctx, &q); err != nil {
		return fmt.Errorf("failed to load principals: %w", err)
	}

	clearScreen := isTerminal(app.Out)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for printed := 0; ; {
		if clearScreen {
			_, _ = fmt.Fprint(app.Out, "\033[H\033[2J")
		}
		_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(st.CalculateAnalytics(true)))
		printFollowUps(app, st.RequiringFollowUp())
		if next, ok := st.NextRefresh(); ok {
			_, _ = fmt.Fprintf(app.Out, "\nNext refresh %s\n", next.Format("15:04:05"))
		}

		printed++
		if *count > 0 && printed >= *count {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := st.FetchPrincipals(ctx, nil); err != nil {
				app.Logger.WithError(err).Warn("refresh failed")
			}
		}
	}
}

// ActivityTUICommand opens the interactive terminal UI.
func ActivityTUICommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activity tui", flag.ContinueOnError)
	realtime := fs.Bool("realtime", true, "Recalculate analytics on the refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !isTerminal(os.Stdout) {
		return fmt.Errorf("the TUI needs an interactive terminal")
	}

	st := app.NewStore()
	defer func() { _ = st.Dispose() }()

	if *realtime {
		if err := st.StartRealTimeUpdates(); err != nil {
			return fmt.Errorf("failed to start refresh loop: %w", err)
		}
	}

	p := tea.NewProgram(tui.NewModel(st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
