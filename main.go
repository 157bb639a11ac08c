package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	// Parse flags
	configPath := flag.String("config", ".env", "Path to config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	// Show help if requested or no arguments provided
	args := flag.Args()
	if *help || len(args) == 0 {
		showHelp()
		os.Exit(0)
	}

	command := args[0]

	// Setup logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Handle different commands
	if command == "parks" {
		cmdParks(args[1:], configPath)
	} else if command == "trails" {
		cmdTrails(args[1:], configPath)
	} else if command == "campgrounds" {
		cmdCampgrounds(args[1:], configPath)
	} else if command == "enrich" {
		cmdEnrich(args[1:], configPath)
	} else if command == "import" {
		cmdImport(args[1:], configPath)
	} else if command == "verify" {
		cmdVerify(args[1:], configPath)
	} else {
		slog.Error("unknown command", "command", command)
		showHelp()
		os.Exit(1)
	}
}

// loadPipeline builds the pipeline with the collaborators a command needs.
// The database is attached only when requested; aggregation commands run
// fine against the object store alone.
func loadPipeline(configPath string, needDB bool) (*Pipeline, *Config, func()) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireS3(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	s3Client, err := NewS3Client(cfg.S3)
	if err != nil {
		slog.Error("failed to initialize S3 client", "error", err)
		os.Exit(1)
	}
	store := NewCatalogStore(s3Client)

	var db *Database
	cleanup := func() {}
	if needDB {
		if err := cfg.RequireDatabase(); err != nil {
			slog.Error("invalid config", "error", err)
			os.Exit(1)
		}
		db, err = NewDatabase(cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		cleanup = func() { db.Close() }
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	cache := NewTTLCache(cfg.Pipeline.CacheTTL, 512)

	feeds, err := LoadGISFeeds(cfg.Sources.GISFeedsPath)
	if err != nil {
		slog.Warn("no GIS feed file, trail ingest unavailable", "error", err)
		feeds = map[string]string{}
	}
	links, err := LoadLinkStore(cfg.Sources.NPSLinksPath)
	if err != nil {
		slog.Error("failed to load link store", "error", err)
		os.Exit(1)
	}

	pipeline := NewPipeline(cfg, store, db,
		NewGISFeedClient(httpClient, feeds),
		NewNPSClient(httpClient, cfg.Sources.NPSBaseURL, cfg.Sources.NPSAPIKey, cache),
		NewRIDBClient(httpClient, cfg.Sources.RIDBBaseURL, cfg.Sources.RIDBAPIKey, cache),
		NewOverpassClient(httpClient, cfg.Sources.OverpassBaseURL, cache),
		links,
	)
	return pipeline, cfg, cleanup
}

// runForStates runs fn for each state in scope under signal-aware
// cancellation. A state that fails is logged and the rest proceed.
func runForStates(stateFlag string, fn func(ctx context.Context, stateCode string) error) {
	states, err := statesInScope(stateFlag)
	if err != nil {
		slog.Error("invalid state flag", "error", err)
		os.Exit(1)
	}
	runStates(states, fn)
}

func runStates(states []string, fn func(ctx context.Context, stateCode string) error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan int, 1)
	go func() {
		failures := 0
		for _, state := range states {
			if ctx.Err() != nil {
				break
			}
			if err := fn(ctx, state); err != nil {
				if IsTransient(err) {
					slog.Warn("state run failed, upstream looks transient", "state", state, "error", err)
				} else {
					slog.Error("state run failed", "state", state, "error", err)
				}
				failures++
			}
		}
		done <- failures
	}()

	select {
	case failures := <-done:
		if failures > 0 {
			slog.Error("run finished with failures", "failed_states", failures)
			os.Exit(1)
		}
		slog.Info("run completed successfully", "states", len(states))
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
		<-done
		os.Exit(1)
	}
}

// cmdParks builds the park registry for one or all states
func cmdParks(args []string, configPath *string) {
	fs := flag.NewFlagSet("parks", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}

	pipeline, cfg, cleanup := loadPipeline(*configPath, false)
	defer cleanup()
	if err := cfg.RequireSourceKeys(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	runForStates(*state, pipeline.RunParkAggregation)
}

// cmdTrails ingests state GIS trail feeds into the catalog
func cmdTrails(args []string, configPath *string) {
	fs := flag.NewFlagSet("trails", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	withDB := fs.Bool("with-db", false, "Also project trails into the database")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}

	pipeline, _, cleanup := loadPipeline(*configPath, *withDB)
	defer cleanup()

	runForStates(*state, pipeline.RunTrailIngest)
}

// cmdCampgrounds unifies campground sources into the facility catalog
func cmdCampgrounds(args []string, configPath *string) {
	fs := flag.NewFlagSet("campgrounds", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}

	pipeline, cfg, cleanup := loadPipeline(*configPath, false)
	defer cleanup()
	if err := cfg.RequireSourceKeys(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	runForStates(*state, pipeline.RunCampgroundAggregation)
}

// cmdEnrich runs the enrichment phases over existing catalog documents
func cmdEnrich(args []string, configPath *string) {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	phase := fs.String("phase", "all", "Enrichment phase: all, 1, 2 or 3")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}
	if *phase != "all" && *phase != "1" && *phase != "2" && *phase != "3" {
		slog.Error("invalid phase", "phase", *phase)
		os.Exit(1)
	}

	pipeline, _, cleanup := loadPipeline(*configPath, false)
	defer cleanup()

	runForStates(*state, func(ctx context.Context, stateCode string) error {
		return pipeline.RunEnrichment(ctx, stateCode, *phase)
	})
}

// cmdImport projects object-store documents into the relational store
func cmdImport(args []string, configPath *string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	ensureSchema := fs.Bool("ensure-schema", true, "Create tables and indexes if missing")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}

	pipeline, _, cleanup := loadPipeline(*configPath, true)
	defer cleanup()

	if *ensureSchema {
		if err := pipeline.db.EnsureSchema(context.Background()); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	runForStates(*state, pipeline.RunImport)
}

// cmdVerify checks catalog documents against the structural rules
func cmdVerify(args []string, configPath *string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	state := fs.String("state", "", "State code or ALL")
	fs.Parse(args)

	if *state == "" {
		slog.Error("-state is required")
		os.Exit(1)
	}

	pipeline, _, cleanup := loadPipeline(*configPath, false)
	defer cleanup()

	verifyState := func(ctx context.Context, stateCode string) error {
		report, err := VerifyStateCatalog(ctx, pipeline.store, stateCode)
		if err != nil {
			return err
		}
		report.Print()
		if !report.OK {
			return fmt.Errorf("catalog for %s failed verification", stateCode)
		}
		return nil
	}

	// A full sweep only visits states that actually have documents.
	if strings.EqualFold(*state, "ALL") {
		states, err := StatesWithCatalogs(context.Background(), pipeline.store)
		if err != nil {
			slog.Error("failed to list catalog documents", "error", err)
			os.Exit(1)
		}
		if len(states) == 0 {
			slog.Info("no catalog documents to verify")
			return
		}
		runStates(states, verifyState)
		return
	}

	runForStates(*state, verifyState)
}

func showHelp() {
	help := `Trail Catalog - Reconcile recreation data sources into a unified catalog

Usage:
  trailcatalog [global options] <command> [command options]

Global Options:
  -config string        Path to .env configuration file (default ".env")
  -debug                Enable debug logging
  -help                 Show this help message

Commands:
  parks                 Build the deduplicated park registry from the national-park API
  trails                Ingest state GIS trail feeds and merge into the catalog
  campgrounds           Unify campground sources into the facility catalog
  enrich                Run enrichment phases over existing catalog documents
  import                Project catalog documents into the relational database
  verify                Check catalog documents against the structural rules

Parks Command:
  Usage: trailcatalog parks -state <XX|ALL>

Trails Command:
  Usage: trailcatalog trails -state <XX|ALL> [options]

  Options:
    -with-db            Also project merged trails into the database

Campgrounds Command:
  Usage: trailcatalog campgrounds -state <XX|ALL>

Enrich Command:
  Usage: trailcatalog enrich -state <XX|ALL> [options]

  Options:
    -phase string       Enrichment phase: all, 1 (computed fields),
                        2 (facility details), 3 (trail tags) (default "all")

Import Command:
  Usage: trailcatalog import -state <XX|ALL> [options]

  Options:
    -ensure-schema      Create tables and indexes if missing (default true)

Verify Command:
  Usage: trailcatalog verify -state <XX|ALL>

Environment Variables:
  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE
  S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_REGION, S3_BUCKET
  NPS_API_KEY, RIDB_API_KEY, OVERPASS_BASE_URL
  GIS_FEEDS_PATH, NPS_LINKS_PATH
  FACILITY_DELAY, OVERPASS_DELAY, RATE_LIMIT_BACKOFF, CACHE_TTL
`
	fmt.Println(help)
}
