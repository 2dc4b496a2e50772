package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"airbnb-dashboard/config"
	"airbnb-dashboard/geo"
	"airbnb-dashboard/models"
	"airbnb-dashboard/render"
	"airbnb-dashboard/server"
	"airbnb-dashboard/services"
	"airbnb-dashboard/snapshot"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

const usage = `usage: airbnb-dashboard [command] [flags]

commands:
  serve     run the web dashboard (default)
  report    print insights and the table view for a query
  import    load the dataset source and store it in PostgreSQL
  snapshot  capture map views of a running dashboard as PNG files
`

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(os.Stdout, cfg.LogLevel)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "report":
		err = runReport(ctx, cfg, logger, args)
	case "import":
		err = runImport(ctx, cfg, logger)
	case "snapshot":
		err = runSnapshot(ctx, cfg, logger, args)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%s failed: %v", cmd, err)
		os.Exit(1)
	}
}

// loadDataset builds the dataset from DATASET_SOURCE.
func loadDataset(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*models.Dataset, error) {
	loader := services.NewLoader(logger)

	if cfg.DatasetSource == "postgres" {
		store, err := storage.NewPostgresStore(ctx, cfg.DSN(), cfg.MaxRetries, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrSourceNotFound, err)
		}
		defer store.Close()
		return loader.LoadStored(ctx, store)
	}

	src, err := storage.ResolveSource(ctx, cfg.DatasetSource, cfg.S3Region, cfg.S3Endpoint, cfg.MaxRetries, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceNotFound, err)
	}
	return loader.Load(ctx, src)
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Airbnb Analytics Dashboard starting ===")

	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return err
	}

	boundaries, err := geo.LoadBoundaries(cfg.BoundariesPath)
	if err != nil {
		logger.Warn("[geo] Map will have no neighbourhood polygons: %v", err)
	} else {
		unmapped, empty := boundaries.CrossValidate(ds)
		if len(unmapped) > 0 {
			logger.Warn("[geo] Neighbourhoods without a polygon: %s", strings.Join(unmapped, ", "))
		}
		if len(empty) > 0 {
			logger.Info("[geo] Polygons without listings: %s", strings.Join(empty, ", "))
		}
	}

	chart, err := render.NewBoxplotRenderer()
	if err != nil {
		return err
	}

	defaults := server.FormDefaults{
		MinPrice:  cfg.DefaultMinPrice,
		MaxPrice:  cfg.DefaultMaxPrice,
		MinNights: cfg.DefaultMinNights,
	}
	handlers, err := server.NewHandlers(ds, boundaries, chart, defaults, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.HTTPAddr, server.NewRouter(handlers, cfg.CORSAllowedOrigins, logger), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// reportQuery turns report flags into search parameters. Any filter flag
// set on the command line switches to filter mode; without -neighbourhoods
// every neighbourhood is searched.
func reportQuery(cfg *config.Config, args []string) (url.Values, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	neighbourhoods := fs.String("neighbourhoods", "", "comma-separated neighbourhoods (empty = every neighbourhood)")
	minPrice := fs.Int("min-price", cfg.DefaultMinPrice, "minimum price per night")
	maxPrice := fs.Int("max-price", cfg.DefaultMaxPrice, "maximum price per night")
	minNights := fs.Int("min-nights", cfg.DefaultMinNights, "keep listings whose minimum stay is at most this")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	filtering := false
	fs.Visit(func(*flag.Flag) { filtering = true })
	if !filtering {
		return url.Values{"mode": {server.ModeAll}}, nil
	}

	v := url.Values{"mode": {server.ModeFilter}}
	if *neighbourhoods == "" {
		v.Add("neighbourhood", models.AllNeighbourhoods)
	} else {
		for _, n := range strings.Split(*neighbourhoods, ",") {
			v.Add("neighbourhood", strings.TrimSpace(n))
		}
	}
	v.Set("min_price", strconv.Itoa(*minPrice))
	v.Set("max_price", strconv.Itoa(*maxPrice))
	v.Set("min_nights", strconv.Itoa(*minNights))
	return v, nil
}

func runReport(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	v, err := reportQuery(cfg, args)
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return err
	}

	q, err := server.ParseQuery(v, server.FormDefaults{})
	if err != nil {
		return err
	}
	if err := services.ValidateCriteria(ds, q.Criteria); err != nil {
		if errors.Is(err, models.ErrInvalidFilterCriteria) {
			fmt.Fprintf(os.Stderr, "%v\nneighbourhoods: %s\n", err, strings.Join(services.NeighbourhoodOptions(ds), ", "))
		}
		return err
	}

	filtered := services.Filter(ds, q.Criteria)
	insights := services.NewInsightService(logger)
	insights.Print(os.Stdout, insights.Generate(filtered), services.ToTable(filtered))
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	if cfg.DatasetSource == "postgres" {
		return errors.New("DATASET_SOURCE must name a CSV file or S3 object to import from")
	}

	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return err
	}

	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), cfg.MaxRetries, logger)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return err
	}
	defer store.Close()

	if err := store.Write(ctx, ds.Listings()); err != nil {
		return err
	}
	logger.Info("Imported %d listings into PostgreSQL (table: listings)", ds.Len())
	return nil
}

func runSnapshot(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("base-url", "http://localhost"+cfg.HTTPAddr, "address of a running dashboard")
	neighbourhoods := fs.String("neighbourhoods", "", "comma-separated neighbourhoods (empty = every neighbourhood in the dataset)")
	fs.Parse(args)

	var names []string
	if *neighbourhoods != "" {
		for _, n := range strings.Split(*neighbourhoods, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	} else {
		ds, err := loadDataset(ctx, cfg, logger)
		if err != nil {
			return err
		}
		names = ds.Neighbourhoods()
	}

	capturer := snapshot.New(cfg, logger)
	targets, err := capturer.Targets(*baseURL, names)
	if err != nil {
		return err
	}
	logger.Info("[snapshot] Capturing %d map views from %s", len(targets), *baseURL)

	results, err := capturer.Capture(ctx, targets)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	fmt.Printf("  Done. %d snapshots → %s (%d failed)\n\n", len(results)-failed, cfg.SnapshotDir, failed)
	if failed == len(results) && failed > 0 {
		return errors.New("every capture failed")
	}
	return nil
}
