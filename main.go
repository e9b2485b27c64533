// ABOUTME: Entry point for the principal activity CLI, MCP server and web server
// ABOUTME: Loads configuration and routes to the subcommand named on the command line
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/crmactivity/cli"
	"github.com/harperreed/crmactivity/config"
	"github.com/harperreed/crmactivity/logging"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/crmactivity/config.json)")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/crmactivity/crm.db)")
	envFile := flag.String("env-file", ".env", "Environment file loaded before the config")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("crmactivity version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The MCP server owns stdout, so logs always go to stderr.
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	if command == "config" {
		if err := configCommand(cfg, *configPath, commandArgs); err != nil {
			logger.Fatalf("Error: %v", err)
		}
		return
	}

	app, err := cli.NewApp(context.Background(), cfg, logger, version)
	if err != nil {
		logger.Fatalf("Failed to start: %v", err)
	}
	defer func() { _ = app.Close() }()

	logger.WithField("database", cfg.DatabasePath).Debug("database opened")

	if err := run(app, command, commandArgs); err != nil {
		_ = app.Close()
		logger.Fatalf("Error: %v", err)
	}
}

func run(app *cli.App, command string, args []string) error {
	switch command {
	case "mcp":
		return cli.MCPCommand(app)
	case "serve":
		return cli.ServeCommand(app, args)
	case "seed":
		return cli.SeedCommand(app, args)
	case "activity":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("activity requires a subcommand")
		}
		return runActivity(app, args[0], args[1:])
	case "names":
		if len(args) == 0 {
			printUsage()
			return fmt.Errorf("names requires a subcommand")
		}
		return runNames(app, args[0], args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runActivity(app *cli.App, sub string, args []string) error {
	switch sub {
	case "list":
		return cli.ActivityListCommand(app, args)
	case "dashboard":
		return cli.ActivityDashboardCommand(app, args)
	case "analytics":
		return cli.ActivityAnalyticsCommand(app, args)
	case "export":
		return cli.ActivityExportCommand(app, args)
	case "update":
		return cli.ActivityUpdateCommand(app, args)
	case "followups":
		return cli.ActivityFollowUpsCommand(app, args)
	case "watch":
		return cli.ActivityWatchCommand(app, args)
	case "tui":
		return cli.ActivityTUICommand(app, args)
	case "graph":
		return cli.ActivityGraphCommand(app, args)
	default:
		return fmt.Errorf("unknown activity command: %s", sub)
	}
}

func runNames(app *cli.App, sub string, args []string) error {
	switch sub {
	case "generate":
		return cli.NamesGenerateCommand(app, args)
	case "template":
		return cli.NamesTemplateCommand(app, args)
	case "preview":
		return cli.NamesPreviewCommand(app, args)
	case "parse":
		return cli.NamesParseCommand(app, args)
	case "unique":
		return cli.NamesUniqueCommand(app, args)
	case "update":
		return cli.NamesUpdateCommand(app, args)
	default:
		return fmt.Errorf("unknown names command: %s", sub)
	}
}

// configCommand shows the effective config or writes it to disk.
func configCommand(cfg *config.Config, path string, args []string) error {
	if len(args) > 0 && args[0] == "init" {
		if err := cfg.Save(path); err != nil {
			return err
		}
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	fmt.Printf("database_path         %s\n", cfg.DatabasePath)
	fmt.Printf("cache_backend         %s\n", cfg.CacheBackend)
	fmt.Printf("cache_ttl             %s\n", cfg.CacheTTL.Std())
	fmt.Printf("slow_query_threshold  %s\n", cfg.SlowQueryThreshold.Std())
	fmt.Printf("refresh_interval      %s\n", cfg.RefreshInterval.Std())
	fmt.Printf("page_size             %d\n", cfg.PageSize)
	fmt.Printf("max_selections        %d\n", cfg.MaxSelections)
	fmt.Printf("fence_requests        %t\n", cfg.FenceRequests)
	fmt.Printf("http_addr             %s\n", cfg.HTTPAddr)
	return nil
}

func printUsage() {
	fmt.Printf(`crmactivity v%s - Principal activity and opportunity naming toolkit

USAGE:
  crmactivity [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/crmactivity/config.json)
  --db-path <path>       Database path (default: ~/.local/share/crmactivity/crm.db)
  --env-file <path>      Environment file (default: .env)
  --log-level <level>    Log level

COMMANDS:
  mcp                    Start MCP server for Claude Desktop
  serve                  Start the web UI, JSON API and /metrics
  seed                   Insert demo data
  config [init]          Show the effective config or write it to disk
  activity               Principal activity commands
  names                  Opportunity naming commands

ACTIVITY COMMANDS:
  crmactivity activity list         List principals
    --search <text>                   Search principal or contact name
    --status <s1,s2>                  ACTIVE, MODERATE, LOW, NO_ACTIVITY
    --min-score / --max-score <n>     Engagement score range
    --type <type>                     Organization type
    --follow-up <true|false>          Pending follow-ups
    --sort <field> --order <asc|desc> Sorting (default: engagement_score desc)
    --page <n> --limit <n>            Pagination
    --format <table|json|csv>         Output format

  crmactivity activity dashboard <id>    Show one principal with distributors, products and timeline
  crmactivity activity analytics         Engagement, status, region and pipeline summary
  crmactivity activity export            Export principals
    --format <csv|json|xlsx>  --output <file>  --ids <id1,id2>
  crmactivity activity update [flags] <id>...  Batch update principals
    --status <status>  --active <true|false>  --type <type>  --follow-up-date <YYYY-MM-DD>
  crmactivity activity followups         Principals with pending follow-ups
  crmactivity activity watch             Reprint analytics on every refresh
    --interval <duration>  --count <n>
  crmactivity activity tui               Interactive terminal UI
  crmactivity activity graph <id>        Distributor network graph
    --portfolio  --format <dot|svg>  --output <file>

NAMES COMMANDS:
  crmactivity names generate   --org <org> --principal <name> [--context <ctx>] [--date YYYY-MM-DD]
  crmactivity names template   Same flags; prints the name template
  crmactivity names preview    Same flags plus id=name arguments
  crmactivity names parse      <name> [--template <tmpl>]
  crmactivity names unique     Same flags as generate; avoids existing opportunity names
  crmactivity names update     [flags] <current name>

EXAMPLES:
  # Load demo data and list the most engaged principals
  crmactivity seed
  crmactivity activity list --limit 10

  # Principals with overdue follow-ups as CSV
  crmactivity activity list --follow-up true --sort next_follow_up_date --order asc --format csv

  # Name a new opportunity
  crmactivity names unique --org "Acme Foods" --principal "Fresh Co" --context "Q2 Promo"

`, version)
}
