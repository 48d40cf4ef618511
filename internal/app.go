package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roylee0704/gron"

	"dmr/internal/controllers"
	"dmr/internal/fetcher"
	"dmr/internal/models"
	"dmr/internal/providers"
	"dmr/internal/storage"
	"dmr/internal/structures"
)

const defaultProgressInterval = 30 * time.Second

type App struct {
	WebServer *http.Server
	Total     int
}

func NewApp(
	fetch *fetcher.Fetcher,
	healthController *controllers.HealthController,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
	progress *models.ProgressTracker,
	store *storage.SecureStorage,
) (*App, error) {
	// Inner mux: ops API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap ops routes with metrics and access logging
	instrumentedAPI := providers.OpsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented ops API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.OpsServer.Host + ":" + strconv.Itoa(conf.OpsServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening ops HTTP on %s:%d", conf.OpsServer.Host, conf.OpsServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Periodic progress report while the run is active
	interval := conf.Fetcher.ProgressInterval
	if interval < time.Second {
		interval = defaultProgressInterval
	}
	cron := gron.New()
	cron.AddFunc(gron.Every(interval), func() {
		snap := progress.Snapshot()
		logger.Infof(providers.TypeApp, "Progress: %d messages in %d batches (%d redacted, %d dropped, %d retries)",
			snap.Messages, snap.Batches, snap.Redacted, snap.Dropped, snap.Retries)
	})
	cron.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type fetchResult struct {
		total int
		err   error
	}
	fetchDone := make(chan fetchResult, 1)
	go func() {
		total, err := fetch.FetchAll(ctx)
		fetchDone <- fetchResult{total: total, err: err}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var result fetchResult
	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received, finishing current page")
		cancel()
		result = <-fetchDone
	case result = <-fetchDone:
	case err := <-serverErr:
		cancel()
		<-fetchDone
		return nil, fmt.Errorf("ops server error: %w", err)
	}

	cron.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.WebServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(providers.TypeApp, "Ops server shutdown error: %v", err)
	}

	store.Close()

	if result.err != nil && !errors.Is(result.err, context.Canceled) {
		return nil, result.err
	}

	app.Total = result.total
	logger.Infof(providers.TypeApp, "Gracefully stopped, %d messages persisted", result.total)
	return app, nil
}
