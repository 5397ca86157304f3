package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-resolver/internal/assets"
	"media-resolver/internal/cloud"
	"media-resolver/internal/database"
	"media-resolver/internal/fetcher"
	"media-resolver/internal/ffprobe"
	"media-resolver/internal/filesystem"
	"media-resolver/internal/handlers"
	"media-resolver/internal/indexer"
	"media-resolver/internal/logging"
	"media-resolver/internal/media"
	"media-resolver/internal/memory"
	"media-resolver/internal/metrics"
	"media-resolver/internal/middleware"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/resolver"
	"media-resolver/internal/startup"
)

const (
	metricsInterval = time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.Fatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library":  config.LibraryDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))

	decodePixels := memory.DecodePixelBudget(memResult.GoMemLimit, media.DefaultMaxPixels)

	ctx := context.Background()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.Fatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error("failed to close database: %v", err)
		}
	}()
	dbInit := time.Since(dbStart)

	downloader, cloudErr := cloud.New(ctx, config.Cloud)
	if cloudErr != nil {
		downloader = nil
	}
	store := database.NewMediaStore(db, downloader, config.CacheDir)

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips initialization failed: %v", err)
		}
	}
	decoder := media.SelectDecoder(config.VipsEnabled, decodePixels)
	prober := ffprobe.NewProber(config.FFprobePath)

	startup.LogComponents(startup.Components{
		Memory:        memResult,
		DecodePixels:  decodePixels,
		DatabaseInit:  dbInit,
		CloudBackend:  config.Cloud.Backend,
		CloudErr:      cloudErr,
		Decoder:       decoder.Name(),
		VipsRequested: config.VipsEnabled,
		FFprobe:       config.FFprobePath,
		FFprobeFound:  prober.Available(),
		IndexInterval: config.IndexInterval,
	})

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	f := fetcher.New(store,
		fetcher.WithTimeout(config.FetchTimeout),
		fetcher.WithProgress(func(h *assets.Handle, fraction float64) {
			logging.Debug("download %s: %.0f%%", h.Identifier, fraction*100)
		}),
	)
	p := pipeline.New(resolver.New(store), f, decoder,
		pipeline.WithVideoProber(prober),
		pipeline.WithMonitor(monitor),
		pipeline.WithAllowedRoots(config.LibraryDir),
	)

	idx := indexer.New(db, config.LibraryDir, config.IndexInterval)
	idx.SetOnIndexComplete(db.UpdateDBMetrics)
	idx.Start()

	collector := metrics.NewCollector(db, metricsInterval)
	collector.Start()

	h := handlers.New(p, db, idx, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           wrapHandler(router, config),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           setupMetricsRouter(h),
			ReadHeaderTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleShutdown(srv, metricsSrv, idx, collector, monitor)
	}()

	endpoints := startup.Endpoints{Port: config.Port, Startup: time.Since(startTime)}
	if config.MetricsEnabled {
		endpoints.MetricsPort = config.MetricsPort
	}
	startup.LogServerStarted(endpoints)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.Fatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assets", h.ListAssets).Methods("GET")
	api.HandleFunc("/assets/metadata", h.GetMetadata).Methods("GET", "POST")
	api.HandleFunc("/assets/blob", h.GetBlob).Methods("GET", "HEAD", "POST")
	api.HandleFunc("/assets/batch", h.ProcessBatch).Methods("POST")
	api.HandleFunc("/assets/{id}", h.GetAsset).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")

	return r
}

func setupMetricsRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.LivenessCheck).Methods("GET", "HEAD")
	return r
}

// wrapHandler applies middleware, outermost last: metrics, access log,
// then compression closest to the handlers.
func wrapHandler(router http.Handler, config *startup.Config) http.Handler {
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdown(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.Step("HTTP server stopped")
	}

	idx.Stop()
	startup.Step("indexer stopped")

	collector.Stop()
	monitor.Stop()
	startup.Step("metrics collector and memory monitor stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.Step("metrics server stopped")
		}
	}

	media.ShutdownVips()
	startup.Step("shutdown complete")
}
