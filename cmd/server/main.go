// Command server runs the millreport HTTP API: report generation,
// archive access, and optional scheduled background generation.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"millreport/internal/api"
	"millreport/internal/archive"
	"millreport/internal/cache"
	"millreport/internal/config"
	"millreport/internal/loader"
	"millreport/internal/report"
	"millreport/internal/scheduler"
)

func main() {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report configuration layers. A missing directory is fine in
	// development; the built-in defaults still resolve.
	reportCfg, err := loader.Dir(cfg.ConfigDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Warn("config directory not found, using built-in defaults", "dir", cfg.ConfigDir)
		if reportCfg, err = loader.Load(); err != nil {
			return err
		}
	}
	logger.Info("report config resolved",
		"config_id", reportCfg.ID(), "departments", len(reportCfg.Departments))

	// Report archive: single-connection write pool, 4-connection read pool.
	writeDB, readDB, err := archive.OpenSQLitePair(cfg.ArchiveDBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	if err := archive.RunMigrations(writeDB); err != nil {
		return err
	}
	store := archive.NewStore(writeDB, readDB)

	var reportCache *cache.ReportCache
	if cfg.Cache.Enabled() {
		reportCache, err = cache.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword,
			cfg.Cache.RedisDB, cfg.Cache.TTL, logger)
		if err != nil {
			return err
		}
		defer reportCache.Close() //nolint:errcheck
		logger.Info("report cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
	}

	opts := report.Options{Sentinel: cfg.FormulaSentinel}
	if cfg.FormulaPolicy == "substitute" {
		opts.Policy = report.Substitute
	}

	svc := report.NewService(logger)
	handler := &api.Handler{
		Reports: svc,
		Config:  reportCfg,
		Store:   store,
		Cache:   reportCache,
		Options: opts,
		Logger:  logger,
	}
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	if cfg.Schedule.Enabled() {
		sched := &scheduler.Scheduler{
			Service:     svc,
			Config:      reportCfg,
			Store:       store,
			DataDBPath:  cfg.DataDBPath,
			Departments: cfg.Schedule.Departments,
			ReportTypes: cfg.Schedule.ReportTypes,
			Options:     opts,
			Logger:      logger,
		}
		if err := sched.Start(cfg.Schedule.Spec); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
