// Package service implements the core business logic of the checkout engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/domain"
	"github.com/luizlenomoraes/saas-completo-sub000/internal/core/ports"
)

// CheckoutInput is everything the buyer submits on the hosted checkout page.
// The submitted amount, if any, is ignored: pricing is always recomputed
// server-side from the product and its add-ons.
type CheckoutInput struct {
	CheckoutHash string
	Method       domain.PaymentMethod
	Customer     domain.Customer
	Address      *domain.Address
	Attribution  domain.Attribution
	AddOnIDs     []string

	// Credit card only. Card carries raw fields to be exchanged for a
	// one-time token; CardToken is accepted pre-minted from the browser.
	Card         *ports.CardData
	CardToken    string
	Installments int
}

// CheckoutOutput is the method-shaped outcome of a checkout.
type CheckoutOutput struct {
	SaleID       string
	ProviderTxID string
	Status       domain.Status
	Amount       domain.Money
	ProductName  string

	Pix    *ports.PixData
	Boleto *ports.BoletoData
}

// CheckoutService orchestrates the synchronous checkout flow: price
// computation, sale creation, gateway dispatch and the initial status.
type CheckoutService struct {
	products ports.ProductRepository
	sales    ports.SaleRepository
	creds    ports.CredentialsRepository
	gateways ports.GatewayResolver
	fanout   *FanoutService
	logger   *zap.Logger
}

// NewCheckoutService creates the checkout orchestrator.
func NewCheckoutService(
	products ports.ProductRepository,
	sales ports.SaleRepository,
	creds ports.CredentialsRepository,
	gateways ports.GatewayResolver,
	fanout *FanoutService,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		products: products,
		sales:    sales,
		creds:    creds,
		gateways: gateways,
		fanout:   fanout,
		logger:   logger,
	}
}

// Checkout runs one purchase end to end. The sale row exists before the
// gateway is called, so a timeout after charge creation leaves a pending
// sale that webhooks or reconciliation can still resolve.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutput, error) {
	// Step 1: resolve the product behind the public checkout hash.
	product, err := s.products.GetByCheckoutHash(ctx, in.CheckoutHash)
	if err != nil {
		return nil, domain.NewCheckoutError(domain.ErrProductNotFound,
			"checkout não encontrado", "PRODUCT_NOT_FOUND")
	}

	// Step 2: validate the submission.
	if err := s.validateInput(product, in); err != nil {
		return nil, err
	}

	// Step 3: compute the total server-side. Unknown and inactive add-on
	// ids are silently dropped; nothing the client sends can move the price.
	selected, addOnTotal := product.SelectAddOns(in.AddOnIDs)
	total := product.Price.Add(addOnTotal)

	addOnIDs := make([]string, 0, len(selected))
	for _, a := range selected {
		addOnIDs = append(addOnIDs, a.ID)
	}

	// Step 4: create the pending sale before touching the gateway.
	sale := &domain.Sale{
		ID:          uuid.NewString(),
		ProductID:   product.ID,
		SellerID:    product.SellerID,
		Amount:      total,
		Method:      in.Method,
		Status:      domain.StatusPending,
		Gateway:     product.Gateway,
		Customer:    in.Customer,
		Address:     in.Address,
		Attribution: in.Attribution,
		AddOnIDs:    addOnIDs,
		CreatedAt:   time.Now(),
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("creating sale: %w", err)
	}

	// Step 5: resolve the seller's gateway.
	creds, err := s.creds.Get(ctx, product.SellerID, product.Gateway)
	if err != nil {
		s.logger.Error("checkout: gateway credentials missing",
			zap.String("sale_id", sale.ID),
			zap.String("gateway", product.Gateway))
		return nil, domain.NewCheckoutError(domain.ErrGatewayNotConfigured,
			"pagamento indisponível para este produto", "GATEWAY_NOT_CONFIGURED")
	}
	gateway, err := s.gateways.Resolve(creds)
	if err != nil {
		s.logger.Error("checkout: gateway resolution failed",
			zap.String("sale_id", sale.ID),
			zap.String("gateway", product.Gateway),
			zap.Error(err))
		return nil, domain.NewCheckoutError(domain.ErrGatewayNotConfigured,
			"pagamento indisponível para este produto", "GATEWAY_NOT_CONFIGURED")
	}

	// Step 6: exchange raw card fields for a one-time token when needed.
	cardToken := in.CardToken
	if in.Method == domain.MethodCreditCard && cardToken == "" && in.Card != nil {
		tokenizer, ok := gateway.(ports.CardTokenizer)
		if !ok {
			return nil, domain.NewCheckoutError(domain.ErrUnsupportedMethod,
				"cartão de crédito não disponível para este produto", "METHOD_NOT_SUPPORTED")
		}
		cardToken, err = tokenizer.MintCardToken(ctx, *in.Card)
		if err != nil {
			// Tokenization failure is buyer-visible validation; never retried.
			return nil, domain.NewCheckoutError(domain.ErrValidation,
				"dados do cartão inválidos", "CARD_VALIDATION_ERROR")
		}
	}

	// Step 7: create the charge.
	result, err := gateway.CreatePayment(ctx, ports.PaymentRequest{
		SaleID:       sale.ID,
		Amount:       total,
		Description:  product.Name,
		Customer:     in.Customer,
		Address:      in.Address,
		Method:       in.Method,
		CardToken:    cardToken,
		Installments: in.Installments,
	})
	if err != nil {
		s.logger.Error("checkout: charge creation failed",
			zap.String("sale_id", sale.ID),
			zap.String("gateway", product.Gateway),
			zap.Error(err))
		return nil, s.chargeError(err)
	}

	// Step 8: attach the provider transaction and the initial status. A
	// just-created PIX charge is pix_created whatever the provider's own
	// post-creation state is called; Mercado Pago, for one, reports it as
	// "pending", which would strand the QR waiting screen on pending.
	initial := result.Status
	if in.Method == domain.MethodPix && initial != domain.StatusApproved {
		initial = domain.StatusPixCreated
	}
	if err := s.sales.AttachProviderTx(ctx, sale.ID, result.ProviderTxID, initial); err != nil {
		return nil, fmt.Errorf("attaching provider tx: %w", err)
	}
	sale.ProviderTxID = result.ProviderTxID
	sale.Status = initial

	s.logger.Info("checkout completed",
		zap.String("sale_id", sale.ID),
		zap.String("gateway", product.Gateway),
		zap.String("status", string(initial)),
		zap.String("amount", total.Format()))

	// Step 9: vendors interested in the initial status hear about it now.
	if s.fanout != nil {
		s.fanout.Dispatch(ctx, sale, product, initial)
	}

	return &CheckoutOutput{
		SaleID:       sale.ID,
		ProviderTxID: result.ProviderTxID,
		Status:       initial,
		Amount:       total,
		ProductName:  product.Name,
		Pix:          result.Pix,
		Boleto:       result.Boleto,
	}, nil
}

// SaleStatus returns the buyer-facing view of a sale, polled by the
// checkout page while a PIX charge awaits payment.
func (s *CheckoutService) SaleStatus(ctx context.Context, saleID string) (*CheckoutOutput, error) {
	sale, err := s.sales.Get(ctx, saleID)
	if err != nil {
		return nil, domain.NewCheckoutError(domain.ErrSaleNotFound,
			"venda não encontrada", "SALE_NOT_FOUND")
	}
	product, err := s.products.Get(ctx, sale.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolving product: %w", err)
	}
	return &CheckoutOutput{
		SaleID:      sale.ID,
		Status:      sale.Status,
		Amount:      sale.Amount,
		ProductName: product.Name,
	}, nil
}

// validateInput checks the submission against the product's requirements.
func (s *CheckoutService) validateInput(product *domain.Product, in CheckoutInput) error {
	if !in.Method.Valid() {
		return domain.NewCheckoutError(domain.ErrValidation,
			"forma de pagamento inválida", "VALIDATION_ERROR")
	}
	if in.Customer.Name == "" || in.Customer.Email == "" {
		return domain.NewCheckoutError(domain.ErrValidation,
			"nome e email são obrigatórios", "VALIDATION_ERROR")
	}

	// Boleto and physical delivery both need a complete address before the
	// gateway is ever called.
	needsAddress := in.Method == domain.MethodBoleto || product.Delivery == domain.DeliveryPhysical
	if needsAddress && !in.Address.Complete() {
		return domain.NewCheckoutError(domain.ErrValidation,
			"endereço completo é obrigatório", "ADDRESS_REQUIRED")
	}
	return nil
}

// chargeError maps a gateway failure to the buyer-safe vocabulary.
func (s *CheckoutService) chargeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnsupportedMethod):
		return domain.NewCheckoutError(domain.ErrUnsupportedMethod,
			"forma de pagamento não disponível para este produto", "METHOD_NOT_SUPPORTED")
	case errors.Is(err, domain.ErrValidation):
		return domain.NewCheckoutError(domain.ErrValidation,
			"dados de pagamento inválidos", "VALIDATION_ERROR")
	case errors.Is(err, domain.ErrPaymentRejected):
		return domain.NewCheckoutError(domain.ErrPaymentRejected,
			"pagamento recusado", "PAYMENT_REJECTED")
	default:
		return domain.NewCheckoutError(domain.ErrProviderUnavailable,
			"não foi possível processar o pagamento, tente novamente", "PROVIDER_ERROR")
	}
}
