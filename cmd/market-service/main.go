// @title Agromarket API
// @version 1.0
// @description Cart, orders, delivery bids and sales mandates for the agricultural marketplace.
// @BasePath /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/config"
	"github.com/MikeMC777/agromarket/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.DefaultConfig()).Fatal("load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stdout"})
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Fatal("wire service", zap.Error(err))
	}
	defer a.close()

	srv := &http.Server{
		Addr:         cfg.App.Addr,
		Handler:      newRouter(a.router),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("market-service listening",
			zap.String("addr", cfg.App.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("cart", cfg.Storage.CartBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", zap.Error(err))
	}
}
