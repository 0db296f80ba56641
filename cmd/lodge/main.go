package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/okian/lodge/internal/adapters/cache"
	"github.com/okian/lodge/internal/adapters/http/api"
	"github.com/okian/lodge/internal/adapters/http/swagger"
	"github.com/okian/lodge/internal/adapters/ical"
	"github.com/okian/lodge/internal/adapters/source"
	service "github.com/okian/lodge/internal/app"
	"github.com/okian/lodge/internal/config"
	"github.com/okian/lodge/internal/content"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
	"github.com/okian/lodge/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal(ctx, "lodge stopped with error", logger.Error(err))
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	mux, err := newMux(ctx, cfg, svc, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
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

// buildSource reads from ContentDir when set, otherwise from the embedded seed content.
func buildSource(cfg *config.Config) *source.FS {
	if cfg.ContentDir != "" {
		return source.NewDir(cfg.ContentDir)
	}
	return source.NewFS(content.FS())
}

// buildService is the composition root for the content service.
func buildService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	tr := transform.New(
		transform.WithExcerptLength(cfg.ExcerptLength),
		transform.WithLocation(loc),
	)

	src := buildSource(cfg)
	opts := []service.Option{
		service.WithLogger(log.Named("content")),
		service.WithConnectivityProbe(src.Online),
		service.WithCache(cache.New(cache.WithDefaultTTL(cfg.CacheTTL))),
		service.WithCacheTTL(cfg.CacheTTL),
		service.WithTransformer(tr),
		service.WithMinRealRecords(cfg.MinRealRecords),
		service.WithRecurrenceHorizon(cfg.RecurrenceHorizonDays),
		service.WithMaxRetries(cfg.MaxRetries),
		service.WithRetryBaseDelay(cfg.RetryBaseDelay),
	}
	if cfg.RefreshCron != "" {
		opts = append(opts, service.WithRefreshSchedule(cfg.RefreshCron))
	}
	return service.New(src, opts...), nil
}

// newMux registers the API, calendar and OpenAPI routes.
func newMux(ctx context.Context, cfg *config.Config, svc api.ContentService, log logger.Logger) (*http.ServeMux, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc,
		api.WithCalendarEncoder(ical.NewEncoder(ical.WithName(cfg.CalendarName))),
		api.WithLocation(loc),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)
	return mux, nil
}

// startSystemMetricsUpdater updates system gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
