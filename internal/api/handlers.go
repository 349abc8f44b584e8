package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/service"
)

// Handler contains the HTTP handlers for the checkout API.
type Handler struct {
	checkout    *service.CheckoutService
	webhooks    *service.WebhookService
	mpSecret    string
	thankYouURL string
	logger      *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(checkout *service.CheckoutService, webhooks *service.WebhookService, mpSecret, thankYouURL string, logger *zap.Logger) *Handler {
	return &Handler{
		checkout:    checkout,
		webhooks:    webhooks,
		mpSecret:    mpSecret,
		thankYouURL: thankYouURL,
		logger:      logger,
	}
}

// CheckoutRequest represents the JSON body for the checkout endpoint.
// productId is the public checkout hash, not the internal product id. No
// amount field exists on purpose: pricing is computed server-side, and an
// advisory amount in the body is simply ignored.
type CheckoutRequest struct {
	CheckoutHash  string          `json:"productId" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	Customer      CustomerRequest `json:"customer" binding:"required"`
	Address       *AddressRequest `json:"address"`
	AddOnIDs      []string        `json:"orderBumps"`
	Tracking      TrackingRequest `json:"tracking"`

	// Credit card only.
	Card         *CardRequest `json:"cardData"`
	CardToken    string       `json:"cardToken"`
	Installments int          `json:"installments"`
}

// CustomerRequest carries the buyer identity fields.
type CustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

// AddressRequest carries the optional shipping/billing address.
type AddressRequest struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// TrackingRequest carries the UTM attribution fields.
type TrackingRequest struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Content  string `json:"utm_content"`
	Term     string `json:"utm_term"`
}

// CardRequest carries raw card fields to be exchanged for a one-time token.
// They are never stored or logged.
type CardRequest struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	ExpMonth   string `json:"expMonth"`
	ExpYear    string `json:"expYear"`
	CVV        string `json:"cvv"`
}

// CheckoutResponse represents the response from the checkout endpoint.
type CheckoutResponse struct {
	Success   bool          `json:"success"`
	OrderID   string        `json:"orderId"`
	PaymentID string        `json:"paymentId,omitempty"`
	Status    domain.Status `json:"status"`
	Amount    domain.Money  `json:"amount"`

	PixData     *ports.PixData    `json:"pixData,omitempty"`
	BoletoData  *ports.BoletoData `json:"boletoData,omitempty"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
}

// SaleStatusResponse represents the polling view of a sale.
type SaleStatusResponse struct {
	Status      domain.Status `json:"status"`
	ProductName string        `json:"productName"`
	Amount      domain.Money  `json:"amount"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateCheckout handles POST /api/v1/checkout.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "corpo da requisição inválido",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	in := service.CheckoutInput{
		CheckoutHash: req.CheckoutHash,
		Method:       domain.PaymentMethod(req.PaymentMethod),
		Customer: domain.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			CPF:   req.Customer.CPF,
			Phone: req.Customer.Phone,
		},
		Attribution: domain.Attribution{
			Source:   req.Tracking.Source,
			Medium:   req.Tracking.Medium,
			Campaign: req.Tracking.Campaign,
			Content:  req.Tracking.Content,
			Term:     req.Tracking.Term,
		},
		AddOnIDs:     req.AddOnIDs,
		CardToken:    req.CardToken,
		Installments: req.Installments,
	}
	if req.Address != nil {
		in.Address = &domain.Address{
			CEP:          req.Address.CEP,
			Street:       req.Address.Street,
			Number:       req.Address.Number,
			Complement:   req.Address.Complement,
			Neighborhood: req.Address.Neighborhood,
			City:         req.Address.City,
			State:        req.Address.State,
		}
	}
	if req.Card != nil {
		in.Card = &ports.CardData{
			Number:     req.Card.Number,
			HolderName: req.Card.HolderName,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVV:        req.Card.CVV,
		}
	}

	out, err := h.checkout.Checkout(c.Request.Context(), in)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := CheckoutResponse{
		Success:    true,
		OrderID:    out.SaleID,
		PaymentID:  out.ProviderTxID,
		Status:     out.Status,
		Amount:     out.Amount,
		PixData:    out.Pix,
		BoletoData: out.Boleto,
	}
	if out.Status == domain.StatusApproved && h.thankYouURL != "" {
		resp.RedirectURL = h.thankYouURL
	}
	c.JSON(http.StatusOK, resp)
}

// GetSaleStatus handles GET /api/v1/sales/:id/status.
// The checkout page polls it while a PIX charge awaits payment.
func (h *Handler) GetSaleStatus(c *gin.Context) {
	out, err := h.checkout.SaleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SaleStatusResponse{
		Status:      out.Status,
		ProductName: out.ProductName,
		Amount:      out.Amount,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "checkout-engine",
	})
}

// handleServiceError maps domain errors to HTTP responses. Messages stay
// buyer-safe; credential and provider details never leave the logs.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var checkoutErr *domain.CheckoutError
	if errors.As(err, &checkoutErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(checkoutErr.Err, domain.ErrProductNotFound),
			errors.Is(checkoutErr.Err, domain.ErrSaleNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(checkoutErr.Err, domain.ErrValidation),
			errors.Is(checkoutErr.Err, domain.ErrUnsupportedMethod):
			statusCode = http.StatusBadRequest
		case errors.Is(checkoutErr.Err, domain.ErrPaymentRejected):
			statusCode = http.StatusPaymentRequired
		case errors.Is(checkoutErr.Err, domain.ErrGatewayNotConfigured):
			statusCode = http.StatusServiceUnavailable
		case errors.Is(checkoutErr.Err, domain.ErrProviderUnavailable):
			statusCode = http.StatusBadGateway
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   checkoutErr.Message,
			Code:    checkoutErr.Code,
		})
		return
	}

	h.logger.Error("unhandled service error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "erro interno",
		Code:    "INTERNAL_ERROR",
	})
}
