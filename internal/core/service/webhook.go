package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// WebhookService ingests provider status notifications and drives the sale
// lifecycle. The compare-and-swap transition is the idempotency boundary:
// duplicated and racing deliveries collapse to exactly one applied
// transition, so the post-approval effects run at most once.
type WebhookService struct {
	sales    ports.SaleRepository
	products ports.ProductRepository
	creds    ports.CredentialsRepository
	gateways ports.GatewayResolver
	effects  *EffectsService
	fanout   *FanoutService
	logger   *zap.Logger
}

// NewWebhookService creates the status ingestion service.
func NewWebhookService(
	sales ports.SaleRepository,
	products ports.ProductRepository,
	creds ports.CredentialsRepository,
	gateways ports.GatewayResolver,
	effects *EffectsService,
	fanout *FanoutService,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		sales:    sales,
		products: products,
		creds:    creds,
		gateways: gateways,
		effects:  effects,
		fanout:   fanout,
		logger:   logger,
	}
}

// IngestStatus processes a notification that carries the provider status
// inline (PushinPay, Efí). The raw status is normalized through the
// per-gateway table; unknown strings degrade to pending.
func (s *WebhookService) IngestStatus(ctx context.Context, gateway, providerTxID, rawStatus string) error {
	sale, err := s.sales.GetByProviderTx(ctx, gateway, providerTxID)
	if err != nil {
		s.logger.Warn("webhook: no sale for provider tx",
			zap.String("gateway", gateway),
			zap.String("provider_tx_id", providerTxID))
		return err
	}

	to := domain.NormalizeStatus(gateway, rawStatus)
	return s.applyTransition(ctx, sale, to)
}

// IngestMercadoPago processes a Mercado Pago notification. Its payload
// carries only the payment id, so the current status is fetched from the
// provider with the seller's own credentials.
func (s *WebhookService) IngestMercadoPago(ctx context.Context, dataID string) error {
	sale, err := s.sales.GetByProviderTx(ctx, domain.GatewayMercadoPago, dataID)
	if err != nil {
		s.logger.Warn("webhook: no sale for mercadopago payment",
			zap.String("provider_tx_id", dataID))
		return err
	}

	creds, err := s.creds.Get(ctx, sale.SellerID, domain.GatewayMercadoPago)
	if err != nil {
		return err
	}
	gateway, err := s.gateways.Resolve(creds)
	if err != nil {
		return err
	}

	to, err := gateway.GetStatus(ctx, dataID)
	if err != nil {
		s.logger.Error("webhook: status fetch failed",
			zap.String("sale_id", sale.ID),
			zap.Error(err))
		return err
	}

	return s.applyTransition(ctx, sale, to)
}

// applyTransition moves the sale to the normalized status. A transition is
// applied iff the new status differs from the stored one and this caller
// wins the swap; only the winner runs effects and fan-out.
func (s *WebhookService) applyTransition(ctx context.Context, sale *domain.Sale, to domain.Status) error {
	if sale.Status == to {
		s.logger.Debug("webhook: status unchanged",
			zap.String("sale_id", sale.ID),
			zap.String("status", string(to)))
		return nil
	}

	won, err := s.sales.CompareAndSwapStatus(ctx, sale.ID, sale.Status, to)
	if err != nil {
		return err
	}
	if !won {
		// Another delivery raced us here; that one owns the effects.
		s.logger.Info("webhook: transition lost to concurrent update",
			zap.String("sale_id", sale.ID),
			zap.String("from", string(sale.Status)),
			zap.String("to", string(to)))
		return nil
	}

	s.logger.Info("sale transitioned",
		zap.String("sale_id", sale.ID),
		zap.String("from", string(sale.Status)),
		zap.String("to", string(to)))

	sale.Status = to

	if to == domain.StatusApproved && s.effects != nil {
		s.effects.RunPostApproval(ctx, sale)
	}

	if s.fanout != nil {
		product, err := s.products.Get(ctx, sale.ProductID)
		if err != nil {
			s.logger.Warn("webhook: product lookup for fanout failed",
				zap.String("sale_id", sale.ID), zap.Error(err))
			return nil
		}
		s.fanout.Dispatch(ctx, sale, product, to)
	}
	return nil
}
