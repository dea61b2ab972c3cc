package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authgraph/authgraph/internal/infrastructure/config"
	"github.com/authgraph/authgraph/internal/infrastructure/database"
	"github.com/authgraph/authgraph/internal/infrastructure/metrics"
	"github.com/authgraph/authgraph/internal/infrastructure/refresh"
	"github.com/authgraph/authgraph/internal/repositories"
	"github.com/authgraph/authgraph/internal/repositories/httpapi"
	"github.com/authgraph/authgraph/internal/repositories/postgres"
	"github.com/authgraph/authgraph/internal/services"
	"github.com/authgraph/authgraph/internal/services/rules"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultEnv = "dev"

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	exporter := metrics.NewPrometheusExporter()

	// Build the snapshot source selected by configuration
	var source repositories.SnapshotSource
	var connStr string

	switch cfg.Source {
	case config.SourceHTTP:
		client := &http.Client{
			Timeout:   time.Duration(cfg.Authority.TimeoutSeconds) * time.Second,
			Transport: metrics.NewRoundTripper(nil, exporter),
		}
		token := func() string { return cfg.Authority.Token }
		source = httpapi.NewSnapshotSource(cfg.Authority.BaseURL, token, client)
		log.Printf("Using HTTP snapshot source: %s", cfg.Authority.BaseURL)

	case config.SourcePostgres:
		pg, err := database.NewPostgres(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()

		log.Printf("Connected to database: %s@%s:%d/%s",
			cfg.Database.User,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Database)

		source = postgres.NewSnapshotSource(pg.DB)
		connStr = cfg.Database.ConnectionString()
	}

	// Initialize services
	registry := rules.NewRegistry()
	manager := services.NewSnapshotManager(source, registry)

	// Record load metrics around every (re)load
	loader := &instrumentedLoader{manager: manager, exporter: exporter}

	refresher := refresh.NewRefresher(
		loader,
		time.Duration(cfg.Refresh.TTLSeconds)*time.Second,
		connStr,
		cfg.Refresh.Channel,
	)

	ctx := context.Background()
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("Failed to start refresher: %v", err)
	}

	stats := manager.Stats()
	log.Printf("Policy graph loaded: %d items, %d rules, %d assignments",
		stats.Items, stats.Rules, stats.Assignments)

	// Serve Prometheus metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Metrics server listening on :%d", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := refresher.Stop(); err != nil {
			log.Printf("Error stopping refresher: %v", err)
		}

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down metrics server: %v", err)
		}

		log.Println("Shutdown complete")
	}
}

// instrumentedLoader wraps the snapshot manager's Load with load metrics and
// graph size gauge updates.
type instrumentedLoader struct {
	manager  *services.SnapshotManager
	exporter *metrics.PrometheusExporter
}

func (l *instrumentedLoader) Load(ctx context.Context) error {
	start := time.Now()
	err := l.manager.Load(ctx)
	l.exporter.RecordLoad(time.Since(start).Seconds())

	if err != nil {
		l.exporter.RecordLoadError()
		return err
	}

	stats := l.manager.Stats()
	l.exporter.UpdateGraph(stats.Items, stats.Rules, stats.Assignments)
	return nil
}
