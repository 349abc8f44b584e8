// Package mercadopago implements the Gateway interface using the official SDK.
// It is the only adapter that supports all three payment methods.
package mercadopago

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/cardtoken"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// Adapter implements ports.Gateway and ports.CardTokenizer on top of the
// Mercado Pago SDK. One instance per seller; the SDK client is built from
// that seller's access token.
type Adapter struct {
	cfg          *config.Config
	pixExpiry    time.Duration
	boletoExpiry time.Duration
}

// Options tunes charge expiry windows.
type Options struct {
	PixExpiry    time.Duration
	BoletoExpiry time.Duration
}

// New creates an adapter for one seller's Mercado Pago account.
func New(creds *domain.MercadoPagoCredentials, opts Options) (*Adapter, error) {
	cfg, err := config.New(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mercadopago access token", domain.ErrGatewayNotConfigured)
	}
	if opts.PixExpiry == 0 {
		opts.PixExpiry = 30 * time.Minute
	}
	if opts.BoletoExpiry == 0 {
		opts.BoletoExpiry = 72 * time.Hour
	}
	return &Adapter{cfg: cfg, pixExpiry: opts.PixExpiry, boletoExpiry: opts.BoletoExpiry}, nil
}

// CreatePayment creates a PIX, boleto or card charge.
func (a *Adapter) CreatePayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	client := payment.NewClient(a.cfg)

	first, last := splitName(req.Customer.Name)
	mpReq := payment.Request{
		TransactionAmount: req.Amount.Float(),
		Description:       req.Description,
		ExternalReference: req.SaleID,
		Payer: &payment.PayerRequest{
			Email:     req.Customer.Email,
			FirstName: first,
			LastName:  last,
			Identification: &payment.IdentificationRequest{
				Type:   "CPF",
				Number: req.Customer.CPF,
			},
		},
	}

	switch req.Method {
	case domain.MethodPix:
		expiry := time.Now().Add(a.pixExpiry)
		mpReq.PaymentMethodID = "pix"
		mpReq.DateOfExpiration = &expiry
	case domain.MethodBoleto:
		expiry := time.Now().Add(a.boletoExpiry)
		mpReq.PaymentMethodID = "bolbradesco"
		mpReq.DateOfExpiration = &expiry
	case domain.MethodCreditCard:
		if req.CardToken == "" {
			return nil, fmt.Errorf("%w: missing card token", domain.ErrValidation)
		}
		mpReq.Token = req.CardToken
		mpReq.Installments = req.Installments
		if mpReq.Installments == 0 {
			mpReq.Installments = 1
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMethod, req.Method)
	}

	result, err := client.Create(ctx, mpReq)
	if err != nil {
		// The SDK folds provider 4xx into the error; treat card charges as
		// validation problems, everything else as provider trouble.
		if req.Method == domain.MethodCreditCard {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	out := &ports.PaymentResult{
		ProviderTxID: strconv.Itoa(result.ID),
		Status:       domain.NormalizeStatus(domain.GatewayMercadoPago, result.Status),
	}

	switch req.Method {
	case domain.MethodPix:
		td := result.PointOfInteraction.TransactionData
		out.Pix = &ports.PixData{
			QRCode:       td.QRCode,
			QRCodeBase64: td.QRCodeBase64,
			CopyPaste:    td.QRCode,
			ExpiresAt:    result.DateOfExpiration,
		}
	case domain.MethodBoleto:
		out.Boleto = &ports.BoletoData{
			Barcode:   result.TransactionDetails.PaymentMethodReferenceID,
			URL:       result.TransactionDetails.ExternalResourceURL,
			ExpiresAt: result.DateOfExpiration,
		}
	}
	return out, nil
}

// GetStatus queries a payment's current provider status and normalizes it.
func (a *Adapter) GetStatus(ctx context.Context, providerTxID string) (domain.Status, error) {
	client := payment.NewClient(a.cfg)

	id, err := strconv.Atoi(providerTxID)
	if err != nil {
		return "", fmt.Errorf("%w: invalid payment id %q", domain.ErrValidation, providerTxID)
	}

	result, err := client.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	return domain.NormalizeStatus(domain.GatewayMercadoPago, result.Status), nil
}

// MintCardToken exchanges raw card fields for a one-time token. Implements
// ports.CardTokenizer; a failure here is buyer-visible validation.
func (a *Adapter) MintCardToken(ctx context.Context, card ports.CardData) (string, error) {
	client := cardtoken.NewClient(a.cfg)

	result, err := client.Create(ctx, cardtoken.Request{
		CardNumber:      card.Number,
		ExpirationMonth: card.ExpMonth,
		ExpirationYear:  card.ExpYear,
		SecurityCode:    card.CVV,
		Cardholder: &cardtoken.CardholderRequest{
			Name: card.HolderName,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: card tokenization rejected: %v", domain.ErrValidation, err)
	}
	return result.ID, nil
}

// splitName breaks a full name into the first/last pair the SDK expects.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var _ ports.Gateway = (*Adapter)(nil)
var _ ports.CardTokenizer = (*Adapter)(nil)
