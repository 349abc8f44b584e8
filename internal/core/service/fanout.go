package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// VendorPayload is the JSON body posted to vendor webhook subscriptions.
type VendorPayload struct {
	Event        string               `json:"event"`
	SaleID       string               `json:"sale_id"`
	ProductID    string               `json:"product_id"`
	ProductName  string               `json:"product_name"`
	Status       domain.Status        `json:"status"`
	Amount       domain.Money         `json:"amount"`
	Method       domain.PaymentMethod `json:"payment_method"`
	ProviderTxID string               `json:"provider_tx_id,omitempty"`
	Customer     domain.Customer      `json:"customer"`
	Attribution  domain.Attribution   `json:"attribution"`
	OccurredAt   string               `json:"occurred_at"`
}

// FanoutService delivers sale transitions to vendor webhook subscriptions.
// Deliveries are fire-and-forget: each destination gets one POST on its own
// goroutine, failures are logged and never retried, and no destination can
// slow down or fail the transition that triggered it.
type FanoutService struct {
	subscriptions ports.SubscriptionRepository
	httpClient    *http.Client
	timeout       time.Duration
	logger        *zap.Logger
}

// NewFanoutService creates the vendor webhook dispatcher.
func NewFanoutService(subscriptions ports.SubscriptionRepository, timeout time.Duration, logger *zap.Logger) *FanoutService {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &FanoutService{
		subscriptions: subscriptions,
		httpClient:    &http.Client{Timeout: timeout},
		timeout:       timeout,
		logger:        logger,
	}
}

// Dispatch fans the transition out to every subscription interested in the
// new status. Returns immediately; deliveries run in the background.
func (s *FanoutService) Dispatch(ctx context.Context, sale *domain.Sale, product *domain.Product, status domain.Status) {
	subs, err := s.subscriptions.ListForProduct(ctx, sale.SellerID, sale.ProductID)
	if err != nil {
		s.logger.Warn("fanout: listing subscriptions failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
		return
	}

	payload := VendorPayload{
		Event:        "sale." + string(status),
		SaleID:       sale.ID,
		ProductID:    sale.ProductID,
		ProductName:  product.Name,
		Status:       status,
		Amount:       sale.Amount,
		Method:       sale.Method,
		ProviderTxID: sale.ProviderTxID,
		Customer:     sale.Customer,
		Attribution:  sale.Attribution,
		OccurredAt:   time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("fanout: marshaling payload failed",
			zap.String("sale_id", sale.ID), zap.Error(err))
		return
	}

	for _, sub := range subs {
		if !sub.WantsStatus(status) {
			continue
		}
		go s.deliver(sub, body, sale.ID)
	}
}

// deliver posts the payload to one destination. The request context is
// detached from the caller's: an HTTP response to the provider must not
// cancel in-flight vendor deliveries.
func (s *FanoutService) deliver(sub *domain.VendorWebhookSubscription, body []byte, saleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("fanout: building request failed",
			zap.String("subscription_id", sub.ID), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("fanout: delivery failed",
			zap.String("subscription_id", sub.ID),
			zap.String("sale_id", saleID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("fanout: destination answered with error",
			zap.String("subscription_id", sub.ID),
			zap.String("sale_id", saleID),
			zap.Int("status_code", resp.StatusCode))
		return
	}

	s.logger.Debug("fanout: delivered",
		zap.String("subscription_id", sub.ID),
		zap.String("sale_id", saleID))
}
