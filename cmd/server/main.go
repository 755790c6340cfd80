package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"it-snapshot-inventory/internal/audit"
	auditrepo "it-snapshot-inventory/internal/audit/repository"
	"it-snapshot-inventory/internal/config"
	"it-snapshot-inventory/internal/db"
	healthhandler "it-snapshot-inventory/internal/health/handler"
	"it-snapshot-inventory/internal/ingest"
	ingesthandler "it-snapshot-inventory/internal/ingest/handler"
	"it-snapshot-inventory/internal/inventory"
	boltstore "it-snapshot-inventory/internal/inventory/bolt"
	inventoryhandler "it-snapshot-inventory/internal/inventory/handler"
	pgstore "it-snapshot-inventory/internal/inventory/postgres"
	"it-snapshot-inventory/internal/rules"
	"it-snapshot-inventory/internal/security"
	"it-snapshot-inventory/internal/server"
	"it-snapshot-inventory/internal/server/middleware"
	"it-snapshot-inventory/internal/telemetry"
	telemetryotel "it-snapshot-inventory/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "it-snapshot-inventory", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	store, auditRepo, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	patterns := rules.DefaultPatterns()
	if cfg.UnwantedPatternsFile != "" {
		patterns, err = rules.LoadPatternsFile(cfg.UnwantedPatternsFile)
		if err != nil {
			log.Fatalf("unwanted patterns: %v", err)
		}
	}

	emitter := telemetryotel.NewEventEmitter(providers.LoggerProvider)
	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIP)
	ingestSvc := ingest.NewService(store, rules.NewEvaluator(patterns), emitter)

	handler := server.NewHandler(server.Deps{
		Ingest:      ingesthandler.NewServer(ingestSvc),
		Query:       inventoryhandler.NewServer(store),
		Health:      healthhandler.NewServer(store),
		Verifier:    security.NewKeyVerifier(cfg.APIKey),
		AuditLogger: auditLogger,
		Meter:       providers.MeterProvider.Meter("it-snapshot-inventory/server"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("inventory server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down inventory server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing down exporters.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("inventory server stopped")
}

// openStore selects the backend: Postgres when DATABASE_URL is set, otherwise
// the embedded bolt file. The audit repository shares the same backend.
func openStore(cfg *config.Config) (inventory.Store, auditrepo.Repository, error) {
	if cfg.UsePostgres() {
		pool, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewStore(pool), auditrepo.NewPostgresRepository(pool), nil
	}
	store, err := boltstore.Open(cfg.BoltPath)
	if err != nil {
		return nil, nil, err
	}
	repo, err := auditrepo.NewBoltRepository(store.DB())
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, repo, nil
}
