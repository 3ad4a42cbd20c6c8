package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/radioqueue/internal/app"
	"github.com/cesargomez89/radioqueue/internal/config"
	"github.com/cesargomez89/radioqueue/internal/constants"
	httpapp "github.com/cesargomez89/radioqueue/internal/http"
	"github.com/cesargomez89/radioqueue/internal/listenbrainz"
	"github.com/cesargomez89/radioqueue/internal/logger"
	"github.com/cesargomez89/radioqueue/internal/musicbrainz"
	"github.com/cesargomez89/radioqueue/internal/resolver"
	"github.com/cesargomez89/radioqueue/internal/store"
	"github.com/cesargomez89/radioqueue/internal/telemetry"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

func main() {
	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := config.LoadWithFile(path)
		if err != nil {
			log.Fatalf("Configuration error: %v", err)
		}
		cfg = fileCfg
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.CacheReset {
		if n, err := db.InvalidateCache(context.Background(), ""); err != nil {
			appLogger.Warn("Failed to reset lookup cache", "error", err)
		} else {
			appLogger.Info("Lookup cache reset", "count", n)
		}
	} else if n, err := db.PurgeExpiredCache(context.Background(), time.Now()); err != nil {
		appLogger.Warn("Failed to purge lookup cache", "error", err)
	} else if n > 0 {
		appLogger.Info("Purged expired lookup cache entries", "count", n)
	}

	// Upstream clients
	yt := ytmusic.NewClient(cfg.YTMusicURL, cfg.YTMusicRPS, &http.Client{Timeout: constants.SearchTimeout})
	radio := listenbrainz.NewRadio(cfg.ListenBrainzURL, listenbrainz.RadioOptions{
		Logger: appLogger,
		Strict: cfg.RecommenderStrict,
	})
	lookup := listenbrainz.NewCachedMetadataClient(listenbrainz.NewMetadataClient(cfg.ListenBrainzURL, nil), db, cfg.CacheTTL)
	mb := musicbrainz.NewCachedClient(musicbrainz.NewClient(cfg.MusicBrainzURL), db, cfg.CacheTTL)

	queue := app.NewQueueService(db, radio, resolver.New(yt, appLogger), appLogger, app.QueueOptions{
		RadioMode:        cfg.RadioMode,
		SeedPrompt:       cfg.SeedPrompt,
		QuarantineWindow: cfg.QuarantineWindow,
		AutofillCooldown: cfg.AutofillCooldown,
		TargetBuffer:     cfg.TargetBuffer,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)

	h := httpapp.NewHandler(queue, yt, mb, lookup, appLogger)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr, "radio_mode", cfg.RadioMode, "strict", cfg.RecommenderStrict)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		return
	}

	appLogger.Info("Server exiting")
}
