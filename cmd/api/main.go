// Checkout engine entry point.
//
// Wires the stores, gateway adapters and services together and starts the
// HTTP server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/config"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/api"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/service"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/gateway"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/gateway/efi"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/gateway/mercadopago"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/gateway/pushinpay"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/storage/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Server.GinMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting checkout engine",
		zap.String("port", cfg.Server.Port),
		zap.String("public_base_url", cfg.App.PublicBaseURL))

	// Storage layer.
	catalog := memory.NewCatalogStore()
	sales := memory.NewSaleStore()
	members := memory.NewMemberStore()
	notifications := memory.NewNotificationStore()
	emails := memory.NewEmailQueueStore()

	// Gateway registry: one factory per provider, each building a
	// per-seller adapter from that seller's credentials.
	registry := gateway.NewRegistry()
	registry.Register(domain.GatewayMercadoPago, func(creds *domain.Credentials) (ports.Gateway, error) {
		return mercadopago.New(creds.MercadoPago, mercadopago.Options{
			PixExpiry:    cfg.App.PixExpiry,
			BoletoExpiry: cfg.App.BoletoExpiry,
		})
	})
	registry.Register(domain.GatewayPushinPay, func(creds *domain.Credentials) (ports.Gateway, error) {
		return pushinpay.New(creds.PushinPay, pushinpay.Options{
			WebhookURL: cfg.App.PublicBaseURL + "/webhooks/pushinpay",
			PixExpiry:  cfg.App.PixExpiry,
			Timeout:    cfg.App.GatewayTimeout,
		}), nil
	})
	registry.Register(domain.GatewayEfi, func(creds *domain.Credentials) (ports.Gateway, error) {
		return efi.New(creds.Efi, efi.Options{
			PixExpiry: cfg.App.PixExpiry,
			Timeout:   cfg.App.GatewayTimeout,
		})
	})

	// Service layer.
	effects := service.NewEffectsService(sales, catalog, members, notifications, emails, logger)
	fanout := service.NewFanoutService(catalog, cfg.App.VendorTimeout, logger)
	checkout := service.NewCheckoutService(catalog, sales, catalog.Credentials(), registry, fanout, logger)
	webhooks := service.NewWebhookService(sales, catalog, catalog.Credentials(), registry, effects, fanout, logger)

	// API layer.
	handler := api.NewHandler(checkout, webhooks, cfg.Security.MPWebhookSecret, cfg.App.ThankYouURL, logger)
	router := api.SetupRouter(handler, cfg.Server.GinMode)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("server listening", zap.String("addr", addr))
		if err := router.Run(addr); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
}

// newLogger builds a production logger, or a development one when running
// in gin's debug mode.
func newLogger(ginMode string) (*zap.Logger, error) {
	if ginMode == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
