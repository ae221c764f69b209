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

	"photo-catalog/internal/asset"
	"photo-catalog/internal/database"
	"photo-catalog/internal/events"
	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/handlers"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/memory"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/middleware"
	"photo-catalog/internal/previewcache"
	"photo-catalog/internal/service"
	"photo-catalog/internal/startup"
)

func main() {
	startTime := time.Now()

	// Must run before anything sizes itself from the memory limit
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	thumbs, previews := config.CacheCapacities(memResult,
		previewcache.DefaultThumbnailCapacity, previewcache.DefaultPreviewCapacity)
	startup.LogMemoryConfig(memResult, thumbs, previews)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	var vipsErr error
	if config.Codec != media.CodecImaging {
		vipsErr = media.InitVips()
	}
	startup.LogCodecInit(config.Codec, vipsErr)

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := events.NewHub()
	go hub.Run(hubCtx)

	svc, err := service.New(service.Config{
		ThumbnailCacheSize: thumbs,
		PreviewCacheSize:   previews,
		Workers:            config.DecodeWorkers,
		RequestTimeout:     config.RequestTimeout,
		Scan:               config.ScanConfig(),
		Render:             config.RenderOptions(),
		Gate:               monitor,
	}, db, hub)
	if err != nil {
		startup.LogFatal("Failed to initialize catalog: %v", err)
	}

	restoreCatalog(svc, config.PhotoDir)

	collector := metrics.NewCollector(svc, time.Minute, db.UpdateDBMetrics)
	collector.Start()

	h := handlers.New(svc, hub, config.PrefetchRadius)
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router, config.LogHealthChecks, config.LogImages)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogImages = config.LogImages
	handler := middleware.Logger(loggingConfig)(router)

	// WriteTimeout stays 0: the event stream is long-lived
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := waitForSignal()
		startup.LogShutdownInitiated(sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		startup.LogShutdownStep("Shutting down HTTP server")
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("HTTP server stopped")
		}

		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()

		// Release workers held back by memory pressure before stopping them
		monitor.Stop()

		startup.LogShutdownStep("Stopping catalog")
		svc.Close()
		startup.LogShutdownStepComplete("Scans and decode workers stopped")

		stopHub()
		media.ShutdownVips()

		startup.LogShutdownStep("Closing database")
		if err := db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Database closed")
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	<-done
	startup.LogShutdownComplete()
}

// restoreCatalog loads the persisted catalog of the last folder, or selects
// photoDir when nothing was remembered. The reconciling scan runs in the
// background so the server starts immediately.
func restoreCatalog(svc *service.Service, photoDir string) {
	ctx := context.Background()

	n, err := svc.LoadFromDatabase(ctx)
	switch {
	case err == nil:
		startup.LogCatalogRestored(svc.Folder(), n)
		go func() {
			if _, err := svc.RescanFolder(ctx); err != nil {
				logging.Warn("Startup rescan failed: %v", err)
			}
		}()
		return
	case !errors.Is(err, asset.ErrNoFolder):
		logging.Warn("Failed to restore catalog: %v", err)
	}

	startup.LogCatalogRestored("", 0)
	if photoDir == "" {
		return
	}
	go func() {
		if _, err := svc.OpenFolder(ctx, photoDir); err != nil {
			logging.Warn("Failed to select %s: %v", photoDir, err)
		}
	}()
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assets", h.ListAssets).Methods("GET")
	api.HandleFunc("/assets/{id}", h.GetAsset).Methods("GET")
	api.HandleFunc("/assets/{id}/thumbnail", h.GetThumbnail).Methods("GET", "HEAD")
	api.HandleFunc("/assets/{id}/preview", h.GetPreview).Methods("GET", "HEAD")
	api.HandleFunc("/assets/{id}/flags", h.SetFlags).Methods("PUT")
	api.HandleFunc("/folder", h.SelectFolder).Methods("POST")
	api.HandleFunc("/rescan", h.Rescan).Methods("POST")
	api.HandleFunc("/reload", h.Reload).Methods("POST")
	api.HandleFunc("/events", h.Events).Methods("GET")

	return r
}

func waitForSignal() os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return <-sigChan
}
