package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricetrack/config"
	"pricetrack/database"
	"pricetrack/handlers"
	"pricetrack/middleware"
	"pricetrack/repository"
	"pricetrack/scheduler"
	"pricetrack/scraper"
	"pricetrack/services"

	"github.com/rs/cors"
	"github.com/urfave/cli/v3"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:   "pricetrack",
		Usage:  "Track product prices on web pages over time",
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the scheduled price checker",
				Action: serveAction,
			},
			{
				Name:  "check",
				Usage: "Check prices once for every product, or for one product",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Only check this product ID",
					},
				},
				Action: checkAction,
			},
			{
				Name:      "extract",
				Usage:     "Fetch a URL and print the extracted price without storing it",
				ArgsUsage: "<url>",
				Action:    extractAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	service *services.PriceService
	close   func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, service: newService(cfg, store), close: closeStore}, nil
}

func newService(cfg *config.Config, store repository.Store) *services.PriceService {
	fetcher := scraper.NewHTTPFetcher(scraper.FetcherOptions{
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	extractor := scraper.NewExtractor(scraper.DefaultRules(cfg.Pricing.DollarCurrency)...)

	return services.NewPriceService(store, fetcher, extractor, services.Options{
		DefaultCurrency: cfg.Pricing.DefaultCurrency,
		UseSelector:     cfg.Pricing.UsePriceSelector,
	})
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Println("Using in-memory store; data is lost on exit")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.CreateTables(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repository.NewSQLRepository(db), func() { db.Close() }, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	if cfg.Scheduler.Enabled {
		priceChecker, err := scheduler.NewPriceChecker(a.service, scheduler.Options{
			Schedule:   cfg.Scheduler.Schedule,
			Workers:    cfg.Scheduler.Workers,
			Interval:   cfg.Scheduler.Interval,
			RunOnStart: cfg.Scheduler.RunOnStart,
		})
		if err != nil {
			return fmt.Errorf("failed to create price checker: %w", err)
		}
		priceChecker.Start()
		defer priceChecker.Stop()
	}

	r := handlers.NewRouter(handlers.NewHandlers(a.service))
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.API.RateLimitPerSecond))
	r.Use(middleware.APIKeyMiddleware(cfg.API.APIKeys))
	r.Use(middleware.BodyLimitMiddleware(cfg.API.MaxBodyBytes))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.API.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// check-price and seeded creation wait on an outbound fetch
		WriteTimeout: cfg.Fetch.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		log.Printf("   POST   /products - Create product")
		log.Printf("   GET    /products - List products (?tag=)")
		log.Printf("   GET    /products/{id} - Product details")
		log.Printf("   DELETE /products/{id} - Delete product")
		log.Printf("   POST   /products/{id}/check-price - Check price now")
		log.Printf("   GET    /products/{id}/history - Price history (?limit=)")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if id := cmd.String("id"); id != "" {
		entry, err := a.service.CheckPrice(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(entry)
	}

	priceChecker, err := scheduler.NewPriceChecker(a.service, scheduler.Options{
		Schedule: a.cfg.Scheduler.Schedule,
		Workers:  a.cfg.Scheduler.Workers,
		Interval: a.cfg.Scheduler.Interval,
	})
	if err != nil {
		return err
	}

	result, err := priceChecker.RunOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func extractAction(ctx context.Context, cmd *cli.Command) error {
	target := cmd.Args().First()
	if target == "" {
		return fmt.Errorf("usage: pricetrack extract <url>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// nothing is stored, so no database is opened
	service := newService(cfg, repository.NewMemoryRepository())
	priceData, err := service.ExtractURL(ctx, target)
	if err != nil {
		return err
	}
	return printJSON(priceData)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
