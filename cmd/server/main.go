package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/grocerycalc/backend/config"
	httpDelivery "github.com/grocerycalc/backend/internal/delivery/http"
	"github.com/grocerycalc/backend/internal/domain"
	"github.com/grocerycalc/backend/internal/infrastructure/metrics"
	"github.com/grocerycalc/backend/internal/infrastructure/postgres"
	"github.com/grocerycalc/backend/internal/infrastructure/store"
	"github.com/grocerycalc/backend/internal/infrastructure/supabase"
	"github.com/grocerycalc/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Grocery Calculator Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Remote: %s, Store: %s", cfg.Remote.Type, cfg.Store.Type)

	ctx := context.Background()

	// Initialize infrastructure dependencies
	blobs, closeStore, err := openBlobStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer closeStore()
	catalogStore := store.NewCatalogStore(blobs, cfg.Store.Key)

	source, closeSource, err := openCatalogSource(ctx, cfg)
	if err != nil {
		// The scanner must stay usable offline, so a dead remote is not fatal
		log.Printf("WARNING: remote catalog source unavailable, running offline: %v", err)
		source = offlineSource{err: err}
		closeSource = func() {}
	}
	defer closeSource()

	recorder := metrics.NewPrometheus()

	// Initialize usecase layer
	catalogService := usecase.NewCatalogService(
		source,
		catalogStore,
		recorder,
		usecase.CatalogServiceConfig{
			FetchTimeout: cfg.Sync.FetchTimeout,
		},
	)

	// Preload: one bounded sync before serving
	result := catalogService.Sync(ctx)
	switch {
	case result.Offline:
		log.Printf("Preload: offline, serving %d stored products", len(result.Catalog))
	case result.Outcome == domain.OutcomeNewItemsAvailable:
		log.Printf("Preload: new items available, %d new of %d products", len(result.NewProducts), len(result.Catalog))
	default:
		log.Printf("Preload: no new updates, %d products", len(result.Catalog))
	}

	sessions := usecase.NewSessionRegistry(catalogService, recorder, cfg.Session.IdleTTL)
	stopJanitor := make(chan struct{})
	defer close(stopJanitor)
	if cfg.Session.SweepInterval > 0 {
		go sessions.RunJanitor(cfg.Session.SweepInterval, stopJanitor)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogService, sessions)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, recorder.Handler())

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openBlobStore(ctx context.Context, cfg config.StoreConfig) (domain.BlobStore, func(), error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, nil, err
		}
		s, err := store.OpenSQLite(ctx, filepath.Join(cfg.Path, "catalog.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := store.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func openCatalogSource(ctx context.Context, cfg *config.Config) (domain.CatalogSource, func(), error) {
	if cfg.Remote.Type == "postgres" {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Sync.FetchTimeout)
		defer cancel()
		pool, err := postgres.Connect(connectCtx, cfg.Remote.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSource(pool, cfg.Remote.Table), pool.Close, nil
	}

	client := supabase.NewClient(supabase.ClientConfig{
		BaseURL:           cfg.Remote.BaseURL,
		APIKey:            cfg.Remote.APIKey,
		Table:             cfg.Remote.Table,
		Timeout:           cfg.Remote.Timeout,
		RequestsPerSecond: float64(cfg.RateLimit.Remote) / 60,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		log.Printf("Remote client debug mode enabled")
	}
	return client, func() {}, nil
}

// offlineSource stands in when the remote could not be reached at startup
type offlineSource struct {
	err error
}

func (s offlineSource) FetchAll(context.Context) ([]domain.Product, error) {
	return nil, s.err
}

func (s offlineSource) Insert(context.Context, domain.ProductInput) (string, error) {
	return "", s.err
}

func (s offlineSource) Update(context.Context, string, domain.ProductUpdate) error {
	return s.err
}

func (s offlineSource) Delete(context.Context, string) error {
	return s.err
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
