package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/sgengine/internal/adapters/http/api"
	"github.com/okian/sgengine/internal/adapters/http/site"
	"github.com/okian/sgengine/internal/adapters/http/swagger"
	"github.com/okian/sgengine/internal/adapters/repository"
	service "github.com/okian/sgengine/internal/app"
	"github.com/okian/sgengine/internal/config"
	"github.com/okian/sgengine/pkg/logger"
	"github.com/okian/sgengine/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; overrides addr")
}

// openStore returns the repository selected by cfg.StorageBackend.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	opts := []repository.Option{repository.WithFetchTimeout(cfg.FetchTimeout())}
	var dialect string
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return repository.NewMemoryStore(opts...), nil
	case config.BackendSQLite:
		dialect = repository.DialectSQLite
	case config.BackendPostgres:
		dialect = repository.DialectPostgres
	default:
		return nil, fmt.Errorf("%w: unknown storage_backend %q", config.ErrInvalidConfig, cfg.StorageBackend)
	}
	s, err := repository.NewSQLStore(ctx, dialect, cfg.DatabaseDSN, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newService opens the configured store and starts a service on it.
func newService(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageBackend, err)
	}
	svc := service.New(
		service.WithLogger(logger.Get().Named("service")),
		service.WithStore(cfg.StorageBackend, store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithFetchRetries(cfg.FetchRetries),
		service.WithMaxRollingWindow(cfg.MaxRollingWindow),
		service.WithDefaultModel(cfg.DefaultModel),
		service.WithShortGameYards(cfg.ShortGameYards),
		service.WithBaselineFile(cfg.BaselineFile),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

// newMux registers the API, docs and landing page routes.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Stop()

	if cfg.MetricsEnabled {
		go startSystemMetricsUpdater(ctx, cfg.SystemMetricsInterval())
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("backend", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond)
	}
}
