package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/prodex/api"
	"github.com/use-agent/prodex/api/handler"
	"github.com/use-agent/prodex/cache"
	"github.com/use-agent/prodex/config"
	"github.com/use-agent/prodex/engine"
	"github.com/use-agent/prodex/extractor"
	"github.com/use-agent/prodex/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logger := initLogger(cfg.Log)
	slog.Info("prodex starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Extraction engine ────────────────────────────────────────
	ext := extractor.New(extractor.Options{
		Logger:              logger.With("component", "extractor"),
		RevealWait:          cfg.Extract.RevealWait,
		LazyDescriptionWait: cfg.Extract.LazyDescriptionWait,
		PollInterval:        cfg.Extract.PollInterval,
	})

	// ── 4. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Extract, ext)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4b. Fetch-mode dispatcher ───────────────────────────────────
	if cfg.Engine.EnableMultiEngine {
		engines := []engine.Engine{
			engine.NewHTTPEngine(ext, cfg.Browser.UserAgent, cfg.Engine.HTTPTimeout),
			engine.NewRodEngine(sc.FetchRod),
		}
		memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL, time.Hour)
		defer memory.Stop()

		sc.SetDispatcher(engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory))
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.MaxAge)
	defer cc.Stop()
	batches := handler.NewBatchStore(cfg.Batch.JobTTL)
	defer batches.Stop()
	router := api.NewRouter(sc, cfg, cc, batches, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred: batch sweep, domain memory, page pool and Chrome.
	slog.Info("prodex stopped")
}

// initLogger installs the configured slog handler as the default and
// returns it.
func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
