package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "rice-mill/internal/adapters/web"
	"rice-mill/internal/app"
	"rice-mill/internal/cache"
	"rice-mill/internal/config"
	"rice-mill/internal/db"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	rdb := config.ConnectRedis(ctx, cfg, logger, 3)
	if rdb != nil {
		defer rdb.Close()
	}
	reports := cache.New(rdb, "rice-mill:reports", cfg.ReportCacheTTL)

	svc := app.NewAppService(app.NewServices(pool, cfg), reports, logger)
	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("server shutdown")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":           cfg.ServerPort,
		"default_godown": cfg.DefaultGodown,
		"bag_size_kg":    cfg.Units.BagSizeKg,
		"report_cache":   reports.Enabled(),
	}).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server: %v", err)
	}
	logger.Info("server stopped")
}
