package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/gateway/mercadopago"
)

// Provider webhooks always answer 200 with a success-shaped body, whatever
// happens inside. Anything else makes providers retry aggressively; a
// failed ingestion is recovered by the next notification or by
// reconciliation, not by a retry storm.

// MercadoPagoWebhookRequest is the notification body Mercado Pago posts.
// It carries only the payment id; the status is fetched back.
type MercadoPagoWebhookRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleMercadoPagoWebhook handles POST /webhooks/mercadopago.
func (h *Handler) HandleMercadoPagoWebhook(c *gin.Context) {
	var req MercadoPagoWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("mercadopago webhook: unparseable body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	// Signature validation runs only when a secret is configured.
	if h.mpSecret != "" {
		xSignature := c.GetHeader("x-signature")
		xRequestID := c.GetHeader("x-request-id")
		if !mercadopago.ValidateSignature(xSignature, xRequestID, req.Data.ID, h.mpSecret) {
			h.logger.Warn("mercadopago webhook: signature validation failed",
				zap.String("data_id", req.Data.ID))
			c.JSON(http.StatusOK, gin.H{"status": "received"})
			return
		}
	}

	if req.Type != "payment" || req.Data.ID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.webhooks.IngestMercadoPago(c.Request.Context(), req.Data.ID); err != nil {
		h.logger.Warn("mercadopago webhook: ingestion failed",
			zap.String("data_id", req.Data.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// PushinPayWebhookRequest is the notification body PushinPay posts. The
// status travels inline.
type PushinPayWebhookRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandlePushinPayWebhook handles POST /webhooks/pushinpay.
func (h *Handler) HandlePushinPayWebhook(c *gin.Context) {
	var req PushinPayWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		h.logger.Warn("pushinpay webhook: unparseable body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	if err := h.webhooks.IngestStatus(c.Request.Context(), domain.GatewayPushinPay, req.ID, req.Status); err != nil {
		h.logger.Warn("pushinpay webhook: ingestion failed",
			zap.String("provider_tx_id", req.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// EfiWebhookRequest is the notification body Efí posts when charges settle.
// Each entry is a paid PIX; Efí notifies removals through reconciliation,
// not webhooks.
type EfiWebhookRequest struct {
	Pix []struct {
		TxID       string `json:"txid"`
		EndToEndID string `json:"endToEndId"`
		Valor      string `json:"valor"`
	} `json:"pix"`
}

// HandleEfiWebhook handles POST /webhooks/efi.
func (h *Handler) HandleEfiWebhook(c *gin.Context) {
	var req EfiWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("efi webhook: unparseable body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	for _, pix := range req.Pix {
		if pix.TxID == "" {
			continue
		}
		if err := h.webhooks.IngestStatus(c.Request.Context(), domain.GatewayEfi, pix.TxID, "CONCLUIDA"); err != nil {
			h.logger.Warn("efi webhook: ingestion failed",
				zap.String("provider_tx_id", pix.TxID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
