package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/api"
	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/service"

	_ "storefront/docs"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.StorePath == "" {
		logger.Fatal("SHOP_API_PATH is required")
	}

	client := api.New(cfg.APIBaseURL, cfg.StorePath, cfg.UpstreamTimeout, logger)

	modal := httpapi.NewModalState()
	cart := service.NewCartController(client, logger)
	session := service.NewDetailSession(client, modal, logger)
	cart.BindDetail(session)
	session.OnAdd(func(ctx context.Context, productID string, qty int) error {
		return cart.AddItem(ctx, productID, qty)
	})
	checkout := service.NewCheckoutFlow(client, cart, logger)

	srv := httpapi.NewServer(client, cart, session, checkout, modal, logger)

	// prime the cart mirror, like the page does on mount
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := cart.Refresh(startCtx); err != nil {
		logger.Warn("initial cart load failed", zap.Error(err))
	}
	cancel()

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
