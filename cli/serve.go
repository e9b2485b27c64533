// ABOUTME: Web server subcommand
// ABOUTME: Serves the HTML views, JSON API and Prometheus metrics until interrupted
package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/crmactivity/web"
)

// ServeCommand runs the web server.
func ServeCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", app.Config.HTTPAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(app.Service, web.Options{
		Logger:   app.Logger,
		Gatherer: app.Registry,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
